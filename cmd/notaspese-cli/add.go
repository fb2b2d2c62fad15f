package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"notaspese/internal/core"
	"notaspese/internal/photos"
	"notaspese/internal/services"
)

func addCmd() *cobra.Command {
	var (
		date        string
		description string
		category    string
		amount      string
		photoPath   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Long: `Record an expense in the current week.

The date accepts YYYY-MM-DD or DD/MM/YYYY and defaults to today. The amount
accepts a comma or a dot as decimal separator. Run "categories" for the
category keys.`,
		Example: `  notaspese-cli add -d "Client lunch" -c receipt-cash -a 15,50
  notaspese-cli add --date 10/03/2025 -d Taxi -c invoice-cash -a 23 --photo receipt.jpg`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := parseExpenseFlags(date, description, category, amount)
			if err != nil {
				return err
			}
			if photoPath != "" {
				photo, err := readPhoto(photoPath)
				if err != nil {
					return err
				}
				in.Photo = photo
			}

			return withLedger(cmd, func(svc ledgerService) error {
				e, err := svc.AddExpense(cmd.Context(), in)
				if err != nil {
					return err
				}
				snap := svc.Snapshot()
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded #%d: %s %s %s (%s)\n",
					len(snap.Entries), e.Date.Display(), e.Description, e.Amount.Display(), e.Category.Label())
				fmt.Fprintf(cmd.OutOrStdout(), "Week total: %s\n", snap.Total.Display())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "expense date (YYYY-MM-DD or DD/MM/YYYY, default today)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "what the expense was for")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category key or label")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount in euro")
	cmd.Flags().StringVar(&photoPath, "photo", "", "receipt photo to upload")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func parseExpenseFlags(date, description, category, amount string) (services.NewExpense, error) {
	var in services.NewExpense
	if date != "" {
		d, err := core.ParseISODate(date)
		if err != nil {
			if d, err = core.ParseDisplayDate(date); err != nil {
				return in, &core.ValidationError{Field: "date", Err: err}
			}
		}
		in.Date = d
	}

	m, err := core.ParseMoney(amount)
	if err != nil {
		return in, &core.ValidationError{Field: "amount", Err: err}
	}
	c, err := core.ParseCategory(category)
	if err != nil {
		return in, &core.ValidationError{Field: "category", Err: err}
	}

	in.Description = description
	in.Amount = m
	in.Category = c
	return in, nil
}

func readPhoto(path string) (*services.PhotoFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &core.ValidationError{Field: "photo", Err: err}
	}
	if info.Size() > photos.MaxPhotoBytes {
		return nil, &core.ValidationError{Field: "photo", Err: fmt.Errorf("%s is larger than %d bytes", path, photos.MaxPhotoBytes)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.ValidationError{Field: "photo", Err: err}
	}
	return &services.PhotoFile{Filename: filepath.Base(path), Data: data}, nil
}
