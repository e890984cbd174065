package storectl

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/louisbranch/storefront/internal/services/shop/catalog"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

var errNoProducts = errors.New("seed file has no products")

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	PriceCents  int64  `yaml:"price_cents"`
	Currency    string `yaml:"currency"`
	Stock       int64  `yaml:"stock"`
	Category    string `yaml:"category"`
	Inactive    bool   `yaml:"inactive"`
}

func parseSeed(data []byte) ([]catalog.ProductInput, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(file.Products) == 0 {
		return nil, errNoProducts
	}
	inputs := make([]catalog.ProductInput, 0, len(file.Products))
	for i, p := range file.Products {
		input, err := catalog.NormalizeProductInput(catalog.ProductInput{
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
			PriceCents:  p.PriceCents,
			Currency:    p.Currency,
			Stock:       p.Stock,
			Category:    p.Category,
			Active:      !p.Inactive,
		})
		if err != nil {
			return nil, fmt.Errorf("product %d (%s): %w", i+1, p.Slug, err)
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// seedProducts inserts products whose slug is not taken yet and reports how
// many were created and skipped.
func seedProducts(ctx context.Context, store storage.ProductStore, inputs []catalog.ProductInput, logger *zap.Logger) (created, skipped int, err error) {
	for _, input := range inputs {
		_, err := store.GetProductBySlug(ctx, input.Slug)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return created, skipped, fmt.Errorf("look up %s: %w", input.Slug, err)
		}
		product, err := catalog.NewProduct(input, nil, nil)
		if err != nil {
			return created, skipped, err
		}
		if err := store.CreateProduct(ctx, product); err != nil {
			return created, skipped, fmt.Errorf("create %s: %w", input.Slug, err)
		}
		logger.Debug("product seeded", zap.String("slug", product.Slug), zap.String("product_id", product.ID))
		created++
	}
	return created, skipped, nil
}

func newSeedCommand(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo catalog products; existing slugs are left alone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data := defaultSeed
			if file != "" {
				var err error
				data, err = os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read seed file: %w", err)
				}
			}
			inputs, err := parseSeed(data)
			if err != nil {
				return err
			}

			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			created, skipped, err := seedProducts(cmd.Context(), store, inputs, opts.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products (%d already present)\n", created, skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file with products (defaults to the built-in demo catalog)")
	return cmd
}
