package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/praya-stock/internal/app"
	"github.com/mamadbah2/praya-stock/internal/domain/models"
	"github.com/mamadbah2/praya-stock/internal/service/alerts"
	"github.com/mamadbah2/praya-stock/internal/service/reporting"
	"github.com/mamadbah2/praya-stock/internal/spreadsheet"
	whatsappclient "github.com/mamadbah2/praya-stock/pkg/clients/whatsapp"
)

const dateLayout = "2006-01-02"

var errSheetsDisabled = errors.New("google sheets is not configured (GOOGLE_SHEET_DATABASE_ID)")

func reportCmd(g *globals) *cobra.Command {
	var (
		start, end, search, status, exportRange string
		outputJSON                              bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the sales report with restock status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(ctx context.Context, a *app.App) error {
				q, err := buildQuery(start, end, search, status, a.Config.Reporting.WindowDays, a.Config.Reporting.Location(), time.Now())
				if err != nil {
					return err
				}

				report, err := a.Reports.SalesReport(ctx, q)
				if err != nil {
					return err
				}

				if exportRange != "" {
					repo := a.Sheets()
					if repo == nil {
						return errSheetsDisabled
					}
					if err := repo.AppendRows(ctx, exportRange, exportRows(report)); err != nil {
						return err
					}
				}

				if outputJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				}
				return writeReport(cmd.OutOrStdout(), report)
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day (YYYY-MM-DD), defaults to the configured window")
	cmd.Flags().StringVar(&end, "end", "", "Last day (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVarP(&search, "query", "q", "", "Filter by item name")
	cmd.Flags().StringVar(&status, "status", "ALL", "ALL, URGENT, PREPARE or SUFFICIENT")
	cmd.Flags().StringVar(&exportRange, "export", "", "Also append the report to this Google Sheets range")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output the report as JSON")
	return cmd
}

func reconcileCmd(g *globals) *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare stored stock with the stock derived from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(ctx context.Context, a *app.App) error {
				drifts, err := a.Ledger.Reconcile(ctx, repair)
				if err != nil {
					return err
				}
				return writeDrifts(cmd.OutOrStdout(), drifts)
			})
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Overwrite stored stock with the derived value")
	return cmd
}

func importCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import items or sales from a spreadsheet",
	}

	var sheetRange string
	load := func(ctx context.Context, a *app.App, args []string, kind spreadsheet.Kind) ([]models.ImportRow, error) {
		if sheetRange != "" {
			repo := a.Sheets()
			if repo == nil {
				return nil, errSheetsDisabled
			}
			values, err := repo.ReadRange(ctx, sheetRange)
			if err != nil {
				return nil, err
			}
			return spreadsheet.ParseValues(values, kind)
		}
		if len(args) != 1 {
			return nil, errors.New("expected one .xlsx file or --sheet-range")
		}
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return spreadsheet.ParseXLSX(f, kind)
	}

	items := &cobra.Command{
		Use:   "items [file.xlsx]",
		Short: "Register items (Kode Barang, Nama Barang, Jumlah)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(ctx context.Context, a *app.App) error {
				rows, err := load(ctx, a, args, spreadsheet.KindItems)
				if err != nil {
					return err
				}
				created, err := a.Ledger.AddItemsBulk(ctx, rows)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d items imported\n", len(created))
				return nil
			})
		},
	}

	sales := &cobra.Command{
		Use:   "sales [file.xlsx]",
		Short: "Record sales (Kode Barang, Jumlah)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(ctx context.Context, a *app.App) error {
				rows, err := load(ctx, a, args, spreadsheet.KindSales)
				if err != nil {
					return err
				}
				events, err := a.Ledger.ImportOutgoing(ctx, rows)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d sales recorded\n", len(events))
				return nil
			})
		},
	}

	cmd.PersistentFlags().StringVar(&sheetRange, "sheet-range", "", "Read rows from this Google Sheets range instead of a file")
	cmd.AddCommand(items, sales)
	return cmd
}

func alertCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "alert",
		Short: "Send the restock summary now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(ctx context.Context, a *app.App) error {
				summary, err := a.Reports.RestockSummary(ctx, a.Config.Reporting.WindowDays)
				if err != nil {
					return err
				}

				wa := a.Config.WhatsApp
				if !wa.Enabled() {
					fmt.Fprintln(cmd.OutOrStdout(), summary)
					return nil
				}
				notifier := alerts.NewWhatsAppNotifier(whatsappclient.NewClient(wa), wa.AlertRecipient, a.Logger.Named("alerts.whatsapp"))
				return notifier.Notify(ctx, summary)
			})
		},
	}
}

// buildQuery resolves the report flags. Missing dates fall back to the last
// windowDays days ending on now.
func buildQuery(start, end, search, status string, windowDays int, loc *time.Location, now time.Time) (reporting.Query, error) {
	parsedStatus, err := reporting.ParseStatus(status)
	if err != nil {
		return reporting.Query{}, err
	}
	if windowDays < 1 {
		windowDays = 1
	}

	to := now.In(loc)
	if end != "" {
		if to, err = time.ParseInLocation(dateLayout, end, loc); err != nil {
			return reporting.Query{}, fmt.Errorf("invalid --end: %w", err)
		}
	}
	from := to.AddDate(0, 0, -(windowDays - 1))
	if start != "" {
		if from, err = time.ParseInLocation(dateLayout, start, loc); err != nil {
			return reporting.Query{}, fmt.Errorf("invalid --start: %w", err)
		}
	}

	return reporting.Query{Start: from, End: to, Search: search, Status: parsedStatus}, nil
}

func writeReport(w io.Writer, report reporting.Report) error {
	fmt.Fprintf(w, "Sales %s - %s\n\n", models.FormatDate(report.Start), models.FormatDate(report.End))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tCODE\tNAME\tSTOCK\tSOLD")
	for _, e := range report.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", e.Status, e.Item.Code, e.Item.Name, e.Item.Stock, e.Sales)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d URGENT, %d PREPARE, %d SUFFICIENT\n",
		report.Counts[reporting.StatusUrgent], report.Counts[reporting.StatusPrepare], report.Counts[reporting.StatusSufficient])
	return err
}

func writeDrifts(w io.Writer, drifts []models.StockDrift) error {
	if len(drifts) == 0 {
		_, err := fmt.Fprintln(w, "stock matches history for every item")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tSTORED\tDERIVED\tREPAIRED")
	for _, d := range drifts {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%t\n", d.Code, d.Name, d.Stored, d.Derived, d.Repaired)
	}
	return tw.Flush()
}

// exportRows lays the report out as sheet rows, one per item, prefixed with
// the report window.
func exportRows(report reporting.Report) [][]interface{} {
	period := fmt.Sprintf("%s - %s", report.Start.Format(dateLayout), report.End.Format(dateLayout))
	rows := make([][]interface{}, 0, len(report.Entries))
	for _, e := range report.Entries {
		rows = append(rows, []interface{}{period, e.Item.Code, e.Item.Name, e.Item.Stock, e.Sales, string(e.Status)})
	}
	return rows
}
