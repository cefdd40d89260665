// Command qrzlog uploads, fetches and deletes QSOs in a QRZ.com logbook.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qrzlog/qrzlog/client"
	"github.com/qrzlog/qrzlog/internal/logger"
)

const defaultUserAgent = "qrzlog-cli/0.1"

var (
	apiKey    string
	userAgent string
	endpoint  string
	timeout   time.Duration
	debug     bool
)

func main() {
	if err := loadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("ignoring .env")
	}
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "qrzlog",
		Short:         "qrzlog talks to the QRZ.com Logbook API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = logger.NewConsole(os.Stderr, debug)
			if debug {
				log.Debug().Msg("debug logging enabled")
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("QRZLOG_API_KEY"), "Logbook API key (env QRZLOG_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", getEnv("QRZLOG_USER_AGENT", defaultUserAgent), "User-Agent identifying this program")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", getEnv("QRZLOG_ENDPOINT", client.DefaultEndpoint), "Logbook API URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout per command")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newInsertCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newEncodeCmd())

	return rootCmd
}

func newClient() (*client.Client, error) {
	return client.New(apiKey, userAgent,
		client.WithEndpoint(endpoint),
		client.WithLogger(log.Logger),
		client.WithDebugLogging(debug),
	)
}

func newInsertCmd() *cobra.Command {
	var (
		file    string
		replace bool
		async   bool
	)

	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Upload every QSO in an ADIF file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			records, err := client.DecodeADIF(data)
			if err != nil {
				return err
			}
			log.Debug().Int("records", len(records)).Bool("replace", replace).Bool("async", async).Msg("inserting")

			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if async {
				return insertAsync(ctx, cmd.OutOrStdout(), c, records, replace)
			}
			for _, rec := range records {
				res, err := c.Insert(ctx, rec, replace)
				if err != nil {
					log.Error().Err(err).Str("call", rec.Call()).Msg("insert failed")
					return err
				}
				verb := "inserted"
				if res.Replaced {
					verb = "replaced"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s logid=%d\n", verb, rec.Call(), res.LogID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "ADIF file to upload, - for stdin")
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite duplicate QSOs")
	cmd.Flags().BoolVar(&async, "async", false, "Queue uploads per station and wait for them to finish")
	return cmd
}

// insertAsync queues every record and waits for each station's queue to
// drain. The first failure is returned after all uploads have run.
func insertAsync(ctx context.Context, out io.Writer, c *client.Client, records []client.QsoRecord, replace bool) error {
	stations := map[string]struct{}{}
	for _, rec := range records {
		if _, err := c.InsertAsync(ctx, rec, replace); err != nil {
			return err
		}
		stations[rec.StationCallsign()] = struct{}{}
	}
	for station := range stations {
		if err := c.AwaitConsistency(ctx, station); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "queued %d records for %d stations\n", len(records), len(stations))
	return nil
}

func newFetchCmd() *cobra.Command {
	var (
		all           bool
		asADIF        bool
		band, mode    string
		call          string
		limit         int
		after         int64
		dateFrom, end string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch QSOs matching a filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := client.NewFetchFilter()
			if band != "" {
				filter = filter.WithBand(band)
			}
			if mode != "" {
				filter = filter.WithMode(mode)
			}
			if call != "" {
				filter = filter.WithCall(call)
			}
			if dateFrom != "" || end != "" {
				from, to, err := parseDateRange(dateFrom, end)
				if err != nil {
					return err
				}
				filter = filter.WithDateRange(from, to)
			}
			if filter.OptionString() == "" {
				filter = client.AllRecords()
			}
			if limit > 0 {
				filter = filter.WithMax(limit)
			}
			if cmd.Flags().Changed("after") {
				filter = filter.WithAfterLogID(after)
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var (
				records []client.QsoRecord
				ids     []int64
			)
			if all {
				res, err := c.FetchAll(ctx, filter)
				if err != nil {
					return err
				}
				log.Debug().Int("pages", res.Pages).Int("records", len(res.Records)).Msg("fetched all pages")
				records, ids = res.Records, res.LogIDs
			} else {
				res, err := c.Fetch(ctx, filter)
				if err != nil {
					return err
				}
				records, ids = res.Records, res.LogIDs
			}

			out := cmd.OutOrStdout()
			if asADIF {
				fmt.Fprint(out, client.EncodeADIFDocument(records))
				return nil
			}
			for i, rec := range records {
				id := ""
				if i < len(ids) {
					id = strconv.FormatInt(ids[i], 10)
				}
				fmt.Fprintf(out, "%s\t%s\n", id, rec)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Walk every page instead of fetching one")
	cmd.Flags().BoolVar(&asADIF, "adif", false, "Print an ADIF document instead of a table")
	cmd.Flags().StringVar(&band, "band", "", "Band filter, e.g. 20m")
	cmd.Flags().StringVar(&mode, "mode", "", "Mode filter, e.g. CW")
	cmd.Flags().StringVar(&call, "call", "", "Contacted callsign filter")
	cmd.Flags().IntVar(&limit, "max", 0, "Maximum records per page")
	cmd.Flags().Int64Var(&after, "after", 0, "Only logids at or above this value")
	cmd.Flags().StringVar(&dateFrom, "from", "", "Start date YYYYMMDD")
	cmd.Flags().StringVar(&end, "to", "", "End date YYYYMMDD")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <logid>...",
		Short: "Delete QSOs by logid",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, a := range args {
				id, err := strconv.ParseInt(a, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid logid %q: %w", a, err)
				}
				ids = append(ids, id)
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res, err := c.Delete(ctx, ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", res.Deleted)
			for _, id := range res.NotFound {
				fmt.Fprintf(cmd.OutOrStdout(), "not found %d\n", id)
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the logbook summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res, err := c.Status(ctx)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(res.Data))
			for k := range res.Data {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, res.Data[k])
			}
			return nil
		},
	}
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "Parse an ADIF file locally and list its QSOs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := "-"
			if len(args) == 1 {
				file = args[0]
			}
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			records, err := client.DecodeADIF(data)
			if err != nil {
				return err
			}
			for _, rec := range records {
				fmt.Fprintln(cmd.OutOrStdout(), rec)
			}
			return nil
		},
	}
}

func newEncodeCmd() *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build one QSO from name=value pairs and print it as ADIF",
		Example: "  qrzlog encode --field call=W1AW --field station_callsign=K1ABC \\\n" +
			"    --field qso_date=20240115 --field time_on=1430 --field band=20m --field mode=SSB",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := client.NewRecordBuilder()
			for _, f := range fields {
				name, value, ok := strings.Cut(f, "=")
				if !ok {
					return fmt.Errorf("field %q is not name=value", f)
				}
				if !client.IsWellKnownField(name) {
					b.AdditionalField(name, value)
					continue
				}
				if err := b.Set(name, value); err != nil {
					return err
				}
			}
			rec, err := b.Build()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), client.EncodeADIF(rec))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "ADIF field as name=value (repeatable)")
	return cmd
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(file)
}

// parseDateRange reads YYYYMMDD bounds; a missing end means today.
func parseDateRange(from, to string) (time.Time, time.Time, error) {
	const layout = "20060102"
	if from == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--to requires --from")
	}
	start, err := time.Parse(layout, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
	}
	end := time.Now().UTC()
	if to != "" {
		if end, err = time.Parse(layout, to); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
	}
	return start, end, nil
}

// loadDotEnv exports QRZLOG_* settings from an env file. Missing files are
// not an error and variables already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
