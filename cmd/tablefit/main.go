package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tablefit/adapters/estimators"
	"tablefit/adapters/excel"
	"tablefit/adapters/metrics"
	"tablefit/adapters/postgres"
	"tablefit/app"
	"tablefit/domain/recipe"
	"tablefit/domain/resample"
	"tablefit/domain/table"
	"tablefit/domain/tune"
	"tablefit/internal"
	"tablefit/internal/artifact"
	"tablefit/internal/config"
	"tablefit/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tablefit",
		Short: "Declarative preprocessing and model training for tabular data",
	}

	rootCmd.AddCommand(
		newSplitCmd(),
		newTrainCmd(),
		newPredictCmd(),
		newTuneCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSplitCmd() *cobra.Command {
	var proportion float64
	var seed int64
	var stratify string

	cmd := &cobra.Command{
		Use:   "split [data-file]",
		Short: "Partition a data file into train and holdout sets",
		Long: `Partition a data file into train and holdout row sets with a seeded shuffle.

Example: tablefit split sales.xlsx --prop 0.75 --seed 42 --stratify churned`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd.Context(), args[0], proportion, stratify, seed)
		},
	}

	cmd.Flags().Float64Var(&proportion, "prop", 0.75, "Fraction of rows assigned to training")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for the shuffle")
	cmd.Flags().StringVar(&stratify, "stratify", "", "Categorical column to preserve class balance on")

	return cmd
}

func newTrainCmd() *cobra.Command {
	var outcome string
	var identifiers []string
	var estimator string
	var penalty float64
	var neighbors int
	var out string

	cmd := &cobra.Command{
		Use:   "train [data-file]",
		Short: "Fit a preprocessing recipe and model, saving the bundle",
		Long: `Fit the standard recipe (drop datetimes, dummy-encode nominal predictors,
standardize numeric predictors) plus the chosen estimator on the full file,
then save the fitted bundle for later prediction.

Example: tablefit train sales.xlsx --outcome revenue --id order_id --estimator linear --out model.gob`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd.Context(), args[0], outcome, identifiers, estimator, penalty, neighbors, out)
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "", "Outcome column name (required)")
	cmd.Flags().StringSliceVar(&identifiers, "id", nil, "Identifier columns carried through predictions")
	cmd.Flags().StringVar(&estimator, "estimator", "linear", "Estimator: baseline|linear|knn")
	cmd.Flags().Float64Var(&penalty, "penalty", 0, "Ridge penalty for the linear estimator")
	cmd.Flags().IntVar(&neighbors, "neighbors", 5, "Neighbour count for the knn estimator")
	cmd.Flags().StringVar(&out, "out", "model.gob", "Path for the fitted bundle")
	cmd.MarkFlagRequired("outcome")

	return cmd
}

func newPredictCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "predict [bundle] [data-file]",
		Short: "Predict new data with a saved bundle",
		Long: `Load a fitted bundle, bake the new data through its stored preprocessing,
and write predictions as CSV on stdout.

Example: tablefit predict model.gob new_orders.xlsx --mode numeric`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd.Context(), args[0], args[1], mode)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "numeric", "Prediction mode: numeric|class|prob")

	return cmd
}

func newTuneCmd() *cobra.Command {
	var outcome string
	var identifiers []string
	var estimator string
	var grid []string
	var folds int
	var metricName string
	var seed int64

	cmd := &cobra.Command{
		Use:   "tune [data-file]",
		Short: "Grid-search hyperparameters with cross-validation",
		Long: `Evaluate every grid entry on every cross-validation fold and report the
best entry under the chosen metric. Trials are persisted when DATABASE_URL
is set.

Example: tablefit tune sales.xlsx --outcome revenue --estimator linear --grid penalty=0,0.5,1 --folds 5 --metric rmse`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTune(cmd.Context(), args[0], outcome, identifiers, estimator, grid, folds, metricName, seed)
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "", "Outcome column name (required)")
	cmd.Flags().StringSliceVar(&identifiers, "id", nil, "Identifier columns excluded from predictors")
	cmd.Flags().StringVar(&estimator, "estimator", "linear", "Estimator: baseline|linear|knn")
	cmd.Flags().StringSliceVar(&grid, "grid", nil, "Grid values as name=v1,v2,... (repeatable)")
	cmd.Flags().IntVar(&folds, "folds", 5, "Cross-validation fold count")
	cmd.Flags().StringVar(&metricName, "metric", "rmse", "Selection metric: rmse|mae|rsq|accuracy|brier")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for fold assignment")
	cmd.MarkFlagRequired("outcome")

	return cmd
}

func runSplit(ctx context.Context, dataFile string, proportion float64, stratify string, seed int64) error {
	data, err := excel.NewReader(dataFile).Load(ctx)
	if err != nil {
		return err
	}

	var split resample.Split
	if stratify != "" {
		split, err = resample.StratifiedInitialSplit(data, proportion, stratify, seed)
	} else {
		split, err = resample.InitialSplit(data, proportion, seed)
	}
	if err != nil {
		return err
	}

	fmt.Printf("rows: %d\n", data.NumRows())
	fmt.Printf("train: %d\n", len(split.Train))
	fmt.Printf("holdout: %d\n", len(split.Holdout))
	fmt.Printf("seed: %d\n", split.Seed)
	return nil
}

func runTrain(ctx context.Context, dataFile, outcome string, identifiers []string, estimatorName string, penalty float64, neighbors int, out string) error {
	log := internal.DefaultLogger.Named("train")

	data, err := excel.NewReader(dataFile).Load(ctx)
	if err != nil {
		return err
	}
	roles := buildRoles(outcome, identifiers)
	est, err := buildEstimator(estimatorName, penalty, neighbors)
	if err != nil {
		return err
	}

	wf := app.NewWorkflow(standardRecipe(roles), est)
	fitted, err := wf.Fit(ctx, data)
	if err != nil {
		return err
	}

	id, err := artifact.Save(out, fitted)
	if err != nil {
		return err
	}
	log.Info("fitted %s on %d rows, bundle %s written to %s", estimatorName, data.NumRows(), id, out)
	return nil
}

func runPredict(ctx context.Context, bundlePath, dataFile, modeName string) error {
	mode, err := parseMode(modeName)
	if err != nil {
		return err
	}
	bundle, err := artifact.Load(bundlePath)
	if err != nil {
		return err
	}
	data, err := excel.NewReader(dataFile).Load(ctx)
	if err != nil {
		return err
	}

	preds, err := bundle.Workflow.Predict(data, mode)
	if err != nil {
		return err
	}
	return writeCSV(os.Stdout, preds)
}

func runTune(ctx context.Context, dataFile, outcome string, identifiers []string, estimatorName string, gridSpecs []string, foldCount int, metricName string, seed int64) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := internal.DefaultLogger.Named("tune")

	data, err := excel.NewReader(dataFile).Load(ctx)
	if err != nil {
		return err
	}
	roles := buildRoles(outcome, identifiers)
	est, err := buildEstimator(estimatorName, 0, 5)
	if err != nil {
		return err
	}
	metric, err := buildMetric(metricName)
	if err != nil {
		return err
	}
	grid, err := parseGrid(gridSpecs)
	if err != nil {
		return err
	}

	folds, err := resample.VFold(data, foldCount, seed)
	if err != nil {
		return err
	}

	opts := []app.TunerOption{app.WithWorkers(cfg.Tune.Workers)}
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		opts = append(opts, app.WithStore(postgres.NewTrialStore(db)))
	}

	wf := app.NewWorkflow(standardRecipe(roles), est)
	tuner := app.NewTuner(wf, grid, folds, []ports.Metric{metric}, opts...)

	result, err := tuner.Run(ctx, data)
	if err != nil {
		return err
	}

	best, err := result.SelectBest(metricName, tieBreakFor(estimatorName))
	if err != nil {
		return err
	}
	log.Info("run %s completed with %d trials", result.RunID, len(result.Trials))

	fmt.Printf("run: %s\n", result.RunID)
	for _, trial := range result.Trials {
		if trial.Failed {
			fmt.Printf("  %s: failed (%d fold errors)\n", trial.Entry, len(trial.Errors))
			continue
		}
		summary := trial.Metrics[metricName]
		fmt.Printf("  %s: %s=%.4f ±%.4f (n=%d)\n", trial.Entry, metricName, summary.Mean, summary.StdErr, summary.N)
	}
	fmt.Printf("best: %s\n", best)
	return nil
}

// standardRecipe is the CLI's fixed preprocessing chain: datetimes out,
// nominal predictors dummy-encoded, numeric predictors standardized
func standardRecipe(roles table.RoleMap) recipe.Recipe {
	return recipe.New(roles).
		WithStep(recipe.RemoveStep{Selector: table.ByKind(table.Datetime)}).
		WithStep(recipe.UnknownStep{Selector: table.NominalPredictors()}).
		WithStep(recipe.DummyStep{Selector: table.NominalPredictors(), DropFirst: true}).
		WithStep(recipe.ZeroVarStep{Selector: table.NumericPredictors()}).
		WithStep(recipe.NormalizeStep{Selector: table.NumericPredictors()})
}

func buildRoles(outcome string, identifiers []string) table.RoleMap {
	roles := table.RoleMap{outcome: table.RoleOutcome}
	for _, id := range identifiers {
		roles[id] = table.RoleIdentifier
	}
	return roles
}

func buildEstimator(name string, penalty float64, neighbors int) (ports.Estimator, error) {
	switch name {
	case "baseline":
		return estimators.NewBaseline(), nil
	case "linear":
		return estimators.NewRidge(penalty), nil
	case "knn":
		return estimators.NewKNNWith(neighbors), nil
	default:
		return nil, fmt.Errorf("unknown estimator %q (want baseline, linear or knn)", name)
	}
}

func buildMetric(name string) (ports.Metric, error) {
	switch name {
	case "rmse":
		return metrics.RMSE{}, nil
	case "mae":
		return metrics.MAE{}, nil
	case "rsq":
		return metrics.RSquared{}, nil
	case "accuracy":
		return metrics.Accuracy{}, nil
	case "brier":
		return metrics.Brier{}, nil
	default:
		return nil, fmt.Errorf("unknown metric %q", name)
	}
}

// tieBreakFor prefers the simpler model under an exact metric tie
func tieBreakFor(estimatorName string) app.TieBreak {
	if estimatorName == "knn" {
		return app.PreferSmaller("neighbors")
	}
	return app.PreferLarger("penalty")
}

// parseGrid turns name=v1,v2 specs into the full factorial grid. Values
// parse as numbers when possible and stay strings otherwise.
func parseGrid(specs []string) ([]tune.GridEntry, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one --grid name=v1,v2,... is required")
	}
	candidates := make(map[string][]any, len(specs))
	for _, spec := range specs {
		name, raw, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("bad grid spec %q (want name=v1,v2,...)", spec)
		}
		var values []any
		for _, v := range strings.Split(raw, ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				values = append(values, n)
			} else {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("grid parameter %q has no values", name)
		}
		candidates[name] = values
	}
	return tune.RegularGrid(candidates), nil
}

func parseMode(name string) (ports.PredictMode, error) {
	switch name {
	case "numeric":
		return ports.ModeNumeric, nil
	case "class":
		return ports.ModeClass, nil
	case "prob":
		return ports.ModeProb, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want numeric, class or prob)", name)
	}
}

// writeCSV renders a table as CSV, numerics in compact float form
func writeCSV(out *os.File, t table.Table) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(t.Names()); err != nil {
		return err
	}
	cols := t.Columns()
	for i := 0; i < t.NumRows(); i++ {
		record := make([]string, len(cols))
		for j, col := range cols {
			if col.IsMissing(i) {
				continue
			}
			switch col.Kind {
			case table.Numeric:
				record[j] = strconv.FormatFloat(col.Floats[i], 'g', -1, 64)
			case table.Datetime:
				record[j] = col.Times[i].Format("2006-01-02")
			default:
				record[j] = col.Strings[i]
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}
