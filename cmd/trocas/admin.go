package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidall28/trocasequebras/internal/catalog"
	"github.com/vidall28/trocasequebras/internal/export"
	"github.com/vidall28/trocasequebras/internal/model"
	"github.com/vidall28/trocasequebras/internal/store"
)

func newInitCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and the admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			existing, err := store.GetUserByEmployeeID(ctx, a.db, a.cfg.DB.AdminEmployeeID)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("user %s already exists", a.cfg.DB.AdminEmployeeID)
			}

			password, err := createAdmin(ctx, a.db, a.cfg.DB.AdminEmployeeID, name)
			if err != nil {
				return err
			}
			fmt.Printf("Database ready: %s\n\n", a.cfg.DB.Path)
			printAdmin(a.cfg.DB.AdminEmployeeID, password)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "Administrator", "display name of the admin")
	return cmd
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <entry-id>",
		Short: "Write the photo archive of an entry to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			g, err := store.NewEntryStore(a.db).GetByID(ctx, args[0])
			if err != nil {
				return err
			}
			if g == nil {
				return model.ErrNotFound
			}

			_, router, err := a.evidenceBackends(ctx)
			if err != nil {
				return err
			}
			engine, err := export.NewEngine(router, a.cfg.Export.Workers, a.logger)
			if err != nil {
				return err
			}
			defer engine.Release()

			pkg, err := engine.Export(ctx, g)
			if err != nil {
				return err
			}
			if out == "" {
				out = pkg.Name
			}
			if err := os.WriteFile(out, pkg.Data, 0644); err != nil {
				return fmt.Errorf("writing archive: %w", err)
			}

			fmt.Printf("Wrote %s (%d photos)\n", out, len(pkg.Files))
			for _, f := range pkg.Failures {
				fmt.Fprintf(os.Stderr, "  skipped: %v\n", f)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "archive path (default: suggested archive name)")
	return cmd
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the product catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Insert or update products from a YAML catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := catalog.Seed(cmd.Context(), a.db, products, a.logger)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d products from %s\n", n, args[0])
			return nil
		},
	})
	return cmd
}

// createAdmin creates an admin account with a generated password.
func createAdmin(ctx context.Context, db *sql.DB, employeeID, name string) (string, error) {
	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err := store.CreateUser(ctx, db, employeeID, name, string(hash), model.RoleAdmin); err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	return password, nil
}

func printAdmin(employeeID, password string) {
	fmt.Println("Admin account created:")
	fmt.Printf("  Employee ID: %s\n", employeeID)
	fmt.Printf("  Password:    %s\n", password)
	fmt.Println()
	fmt.Println("Save this password. It cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
	fmt.Println()
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
