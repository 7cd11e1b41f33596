package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/xmletl/internal/config"
	"github.com/askiada/xmletl/internal/logging"
	"github.com/askiada/xmletl/internal/plan"
	"github.com/askiada/xmletl/pkg/objstore"
	"github.com/askiada/xmletl/pkg/pipeline"
	"github.com/askiada/xmletl/pkg/pipeline/drawer"
	"github.com/askiada/xmletl/pkg/pipeline/measure"
	"github.com/askiada/xmletl/pkg/pipeline/model"
	"github.com/askiada/xmletl/pkg/steps"
	"github.com/askiada/xmletl/pkg/table"
)

var (
	configFile string
	planFile   string
	dotFile    string
	verbose    bool
	showRows   int
)

var rootCmd = &cobra.Command{
	Use:   "xmletl",
	Short: "Sequential XML to CSV pipelines",
	Long: `xmletl runs an ordered list of units. Each unit is built from its static
parameters merged with the previous unit's result, then run once.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a pipeline plan (the built-in FIRDS plan by default)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return runPlan(ctx, cmd.OutOrStdout(), os.Stderr)
	},
}

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List the registered unit types",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := steps.NewRegistry(steps.Env{})
		if err != nil {
			return err
		}
		for _, unit := range reg.Units() {
			fmt.Fprintln(cmd.OutOrStdout(), unit)
		}

		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&configFile, "config", "", "TOML configuration file")
	runCmd.Flags().StringVar(&planFile, "pipeline", "", "YAML pipeline plan")
	runCmd.Flags().StringVar(&dotFile, "dot", "", "write the run graph to this DOT file")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	runCmd.Flags().IntVar(&showRows, "show", 0, "print the first rows of the uploaded table")

	rootCmd.AddCommand(runCmd, unitsCmd)
}

func runPlan(ctx context.Context, stdout, stderr io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "unable to load .env")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(stderr, cfg.Verbose || verbose)

	p := plan.Default()
	if planFile != "" {
		p, err = plan.Load(planFile)
		if err != nil {
			return err
		}
	}

	reg, err := steps.NewRegistry(steps.Env{StagingDir: cfg.StagingDir, ChunkSize: cfg.ChunkSize})
	if err != nil {
		return err
	}

	m := measure.NewDefaultMeasure()
	hooks := []model.PipelineOption{measure.PipelineMeasure(m)}
	if dotFile != "" {
		hooks = append(hooks, drawer.PipelineDrawer(drawer.NewDOTDrawer(dotFile), m))
	}

	pipe, err := pipeline.New(p.Name, reg, p.Steps, pipeline.WithLogger(log), pipeline.WithOptions(hooks...))
	if err != nil {
		return err
	}

	report, err := pipe.Run(ctx)
	if err != nil {
		return err
	}
	log.Info("Pipeline completed", slog.String("pipeline", report.Name), slog.Int("units", len(report.Completed)),
		slog.Duration("duration", report.Duration))

	if showRows <= 0 {
		return nil
	}

	uri, ok := report.State["bucket_path"].(string)
	if !ok {
		return errors.New("last unit returned no bucket_path")
	}
	tbl, err := steps.ReadBack(ctx, objstore.NewOpener(cfg.ChunkSize), uri, storageOptions(p))
	if err != nil {
		return err
	}
	printTable(stdout, tbl.Head(showRows))

	return nil
}

// storageOptions returns the options of the plan's last upload unit.
func storageOptions(p *plan.Plan) map[string]string {
	for i := len(p.Steps) - 1; i >= 0; i-- {
		if p.Steps[i].Unit != steps.UnitUploadToBucket {
			continue
		}
		raw, _ := p.Steps[i].Params["storage_options"].(map[string]any)
		options := make(map[string]string, len(raw))
		for k, v := range raw {
			options[k] = fmt.Sprint(v)
		}

		return options
	}

	return nil
}

func printTable(w io.Writer, tbl *table.Table) {
	out := tablewriter.NewWriter(w)
	out.SetAutoWrapText(false)
	out.SetAutoFormatHeaders(false)
	out.SetHeader(tbl.Columns())
	for i := range tbl.Len() {
		out.Append(tbl.Row(i))
	}
	out.Render()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
