package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/terraincognita07/cyclecast/internal/config"
	"github.com/terraincognita07/cyclecast/internal/cycle"
	"github.com/terraincognita07/cyclecast/internal/services"
)

// cycleFlags are the parameters shared by the offline engine commands.
type cycleFlags struct {
	periodStart  string
	periodEnd    string
	periodLength int
	cycleLength  int
	asJSON       bool
}

func (flags *cycleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flags.periodStart, "start", "", "first day of the last period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.periodEnd, "end", "", "last day of the last period when known (YYYY-MM-DD)")
	cmd.Flags().IntVar(&flags.periodLength, "period-length", 5, "period length in days")
	cmd.Flags().IntVar(&flags.cycleLength, "cycle-length", 28, "cycle length in days")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("start")
}

func (flags *cycleFlags) parameters() (cycle.Parameters, error) {
	return cycle.NewParameters(cycle.Input{
		PeriodStart:  flags.periodStart,
		PeriodEnd:    flags.periodEnd,
		PeriodLength: flags.periodLength,
		CycleLength:  flags.cycleLength,
	})
}

func newPhaseCommand() *cobra.Command {
	var (
		flags    cycleFlags
		date     string
		calendar bool
	)
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Classify a date and estimate its fertility",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := flags.parameters()
			if err != nil {
				return err
			}
			day, err := evaluationDate(date)
			if err != nil {
				return err
			}

			classify := cycle.ClassifyPhase
			if calendar {
				classify = cycle.PhaseAt
			}
			phase, err := classify(day, params)
			if err != nil {
				return err
			}
			cycleDay, err := cycle.CycleDay(day, params)
			if err != nil {
				return err
			}
			fertility, err := cycle.EstimateFertility(day, params)
			if err != nil {
				return err
			}
			if fertility.Phase != phase {
				fertility = cycle.Fertility{Score: cycle.LutealScore, Band: cycle.BandVeryLow, Phase: phase}
			}

			result := struct {
				Date      string      `json:"date"`
				Phase     cycle.Phase `json:"phase"`
				CycleDay  int         `json:"cycle_day"`
				Score     int         `json:"score"`
				Band      string      `json:"band"`
				NextStart string      `json:"next_period_start"`
			}{
				Date:      cycle.FormatDate(day),
				Phase:     phase,
				CycleDay:  cycleDay,
				Score:     fertility.Score,
				Band:      fertility.Band,
				NextStart: cycle.FormatDate(params.NextPeriodStart()),
			}
			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return writeTable(cmd.OutOrStdout(), []string{"DATE", "PHASE", "CYCLE DAY", "FERTILITY", "BAND", "NEXT PERIOD"}, [][]any{
				{result.Date, result.Phase, result.CycleDay, result.Score, result.Band, result.NextStart},
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&date, "date", "", "date to evaluate (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&calendar, "calendar", false, "treat the next period start as menstruation")
	return cmd
}

func newForecastCommand() *cobra.Command {
	var (
		flags cycleFlags
		count int
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project upcoming periods, ovulation and fertility windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := flags.parameters()
			if err != nil {
				return err
			}
			entries, err := cycle.ForecastCycles(params, count)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			rows := make([][]any, 0, len(entries))
			for index, entry := range entries {
				rows = append(rows, []any{
					index,
					dateRange(entry.PeriodStart, entry.PeriodEnd),
					dateRange(entry.OvulationStart, entry.OvulationEnd),
					dateRange(entry.FertilityWindowStart, entry.FertilityWindowEnd),
				})
			}
			return writeTable(cmd.OutOrStdout(), []string{"#", "PERIOD", "OVULATION", "FERTILE WINDOW"}, rows)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&count, "count", cycle.DefaultForecastCount, "number of cycles to project")
	return cmd
}

func newFlowCommand() *cobra.Command {
	var (
		periodLength int
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Show the expected flow intensity for each period day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			days := cycle.FlowIntensity(periodLength)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), days)
			}
			rows := make([][]any, 0, len(days))
			for _, day := range days {
				rows = append(rows, []any{day.Day, day.Intensity, day.Band})
			}
			return writeTable(cmd.OutOrStdout(), []string{"DAY", "INTENSITY", "BAND"}, rows)
		},
	}
	cmd.Flags().IntVar(&periodLength, "period-length", 5, "period length in days")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// evaluationDate parses raw or falls back to today in the configured zone.
func evaluationDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) != "" {
		return cycle.ParseDate(raw)
	}
	location := time.UTC
	if cfg, err := config.LoadOffline(); err == nil {
		if loaded, err := cfg.Location(); err == nil {
			location = loaded
		}
	}
	return services.CalendarToday(time.Now(), location), nil
}

func dateRange(start time.Time, end time.Time) string {
	return cycle.FormatDate(start) + " .. " + cycle.FormatDate(end)
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeTable(out io.Writer, header []string, rows [][]any) error {
	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, strings.Join(header, "\t"))
	for _, row := range rows {
		cells := make([]string, len(row))
		for index, cell := range row {
			cells[index] = fmt.Sprint(cell)
		}
		fmt.Fprintln(writer, strings.Join(cells, "\t"))
	}
	return writer.Flush()
}
