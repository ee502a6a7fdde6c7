package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simaogato/bondcurve-backend/internal/domain"
	"github.com/simaogato/bondcurve-backend/internal/usecase/pricing"
)

// curveFlags are shared by every subcommand
type curveFlags struct {
	target    string
	valuation string
	format    string
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &curveFlags{}

	rootCmd := &cobra.Command{
		Use:   "curvectl",
		Short: "Bonding curve calculator for certificate shares",
		Long: `curvectl prices certificate shares along the bonding curve of a
fundraising target. It works offline and needs no database.

Examples:
  curvectl preview --target 10000
  curvectl quote --target 10000 --valuation 1000 --size 0.05
  curvectl budget --target 10000 --valuation 1000 --budget 500
  curvectl table --target 10000 --steps 10 --format json`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&flags.target, "target", domain.DefaultTarget.String(), "Fundraising target in USD")
	rootCmd.PersistentFlags().StringVar(&flags.valuation, "valuation", domain.DefaultValuation.String(), "Current valuation in USD")
	rootCmd.PersistentFlags().StringVar(&flags.format, "format", "table", "Output format (table|json)")

	rootCmd.AddCommand(
		newPreviewCmd(flags),
		newQuoteCmd(flags),
		newBudgetCmd(flags),
		newTableCmd(flags),
	)

	return rootCmd
}

func newPreviewCmd(flags *curveFlags) *cobra.Command {
	var size string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the maximum valuation and fundraise of a curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, valuation, err := flags.parse()
			if err != nil {
				return err
			}
			sizeValue, err := domain.ParseDecimal("size", size)
			if err != nil {
				return err
			}

			logger := zerolog.Nop()
			service := pricing.NewPricingService(nil, nil, &logger)
			result, err := service.Preview(pricing.PreviewInput{
				Target:    &target,
				Valuation: &valuation,
				Size:      sizeValue,
			})
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), flags.format, []row{
				{"target", result.Target},
				{"valuation", result.Valuation},
				{"max_valuation", result.MaxValuation},
				{"max_fundraise", result.MaxFundraise},
				{"size", result.Size},
				{"cost", result.Cost},
				{"new_valuation", result.NewValuation},
				{"shares", result.Shares},
			})
		},
	}
	cmd.Flags().StringVar(&size, "size", "0", "Optional purchase size as a fraction of the shares")

	return cmd
}

func newQuoteCmd(flags *curveFlags) *cobra.Command {
	var size, offset string

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price buying a fraction of the shares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			curve, valuation, err := flags.curve()
			if err != nil {
				return err
			}
			sizeValue, err := domain.ParseDecimal("size", size)
			if err != nil {
				return err
			}
			offsetValue, err := domain.ParseDecimal("offset", offset)
			if err != nil {
				return err
			}

			cost, err := curve.CostOfSizeWithOffset(valuation, sizeValue, offsetValue)
			if err != nil {
				return err
			}
			newValuation, err := curve.ValuationOfSize(valuation, offsetValue.Add(sizeValue))
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), flags.format, []row{
				{"size", sizeValue},
				{"offset", offsetValue},
				{"cost", cost},
				{"new_valuation", newValuation},
				{"shares", domain.FractionToShares(sizeValue)},
			})
		},
	}
	cmd.Flags().StringVar(&size, "size", "", "Purchase size as a fraction of the shares")
	cmd.Flags().StringVar(&offset, "offset", "0", "Fraction already committed ahead of this purchase")
	_ = cmd.MarkFlagRequired("size")

	return cmd
}

func newBudgetCmd(flags *curveFlags) *cobra.Command {
	var budget, offset string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show how much of the shares a USD budget buys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			curve, valuation, err := flags.curve()
			if err != nil {
				return err
			}
			budgetValue, err := domain.ParseDecimal("budget", budget)
			if err != nil {
				return err
			}
			offsetValue, err := domain.ParseDecimal("offset", offset)
			if err != nil {
				return err
			}

			size, err := curve.SizeOfCostWithOffset(valuation, budgetValue, offsetValue)
			if err != nil {
				return err
			}
			newValuation, err := curve.ValuationOfSize(valuation, offsetValue.Add(size))
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), flags.format, []row{
				{"budget", budgetValue},
				{"offset", offsetValue},
				{"size", size},
				{"new_valuation", newValuation},
				{"shares", domain.FractionToShares(size)},
			})
		},
	}
	cmd.Flags().StringVar(&budget, "budget", "", "Budget in USD")
	cmd.Flags().StringVar(&offset, "offset", "0", "Fraction already committed ahead of this purchase")
	_ = cmd.MarkFlagRequired("budget")

	return cmd
}

func newTableCmd(flags *curveFlags) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Tabulate valuation and cumulative cost from 0% to 100% sold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("%w: steps must be positive", domain.ErrInvalidInput)
			}
			curve, _, err := flags.curve()
			if err != nil {
				return err
			}

			points := make([]tablePoint, 0, steps+1)
			for i := 0; i <= steps; i++ {
				fraction := decimal.NewFromInt(int64(i)).DivRound(decimal.NewFromInt(int64(steps)), domain.Precision)
				valuation, err := curve.ValuationAtFraction(fraction)
				if err != nil {
					return err
				}
				cost, err := curve.CostAtFraction(fraction)
				if err != nil {
					return err
				}
				points = append(points, tablePoint{
					Fraction:  fraction,
					Shares:    domain.FractionToShares(fraction),
					Valuation: valuation,
					Cost:      cost,
				})
			}

			return renderTable(cmd.OutOrStdout(), flags.format, points)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 10, "Number of intervals between 0% and 100% sold")

	return cmd
}

func (f *curveFlags) parse() (target, valuation decimal.Decimal, err error) {
	if target, err = domain.ParseDecimal("target", f.target); err != nil {
		return
	}
	valuation, err = domain.ParseDecimal("valuation", f.valuation)
	return
}

func (f *curveFlags) curve() (domain.BondingCurve, decimal.Decimal, error) {
	target, valuation, err := f.parse()
	if err != nil {
		return domain.BondingCurve{}, decimal.Zero, err
	}
	curve, err := domain.NewBondingCurve(target)
	if err != nil {
		return domain.BondingCurve{}, decimal.Zero, err
	}
	return curve, valuation, nil
}

type row struct {
	name  string
	value decimal.Decimal
}

type tablePoint struct {
	Fraction  decimal.Decimal `json:"fraction"`
	Shares    decimal.Decimal `json:"shares"`
	Valuation decimal.Decimal `json:"valuation"`
	Cost      decimal.Decimal `json:"cost"`
}

func render(out io.Writer, format string, rows []row) error {
	switch format {
	case "json":
		fields := make(map[string]decimal.Decimal, len(rows))
		for _, r := range rows {
			fields[r.name] = r.value
		}
		return writeJSON(out, fields)
	case "table":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\n", r.name, r.value.StringFixed(2))
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported format %q (table|json)", format)
	}
}

func renderTable(out io.Writer, format string, points []tablePoint) error {
	switch format {
	case "json":
		return writeJSON(out, points)
	case "table":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FRACTION\tSHARES\tVALUATION\tCOST")
		for _, p := range points {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				p.Fraction.StringFixed(4), p.Shares.StringFixed(0), p.Valuation.StringFixed(2), p.Cost.StringFixed(2))
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported format %q (table|json)", format)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
