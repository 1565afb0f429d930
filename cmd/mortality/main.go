// Command mortality trains and evaluates mortality-prediction models on
// tabular clinical data loaded from CSV files.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Adibvafa/cyclops/cfg"
	"github.com/Adibvafa/cyclops/data"
	"github.com/Adibvafa/cyclops/metrics"
	"github.com/Adibvafa/cyclops/models"
	"github.com/Adibvafa/cyclops/tasks"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	m := metrics.New()
	if c.MetricsPort > 0 {
		startMetricsServer(c.MetricsPort)
	}

	task, err := buildTask(c, m)
	if err != nil {
		log.Fatal().Err(err).Msg("task setup failed")
	}

	ds, err := loadDataset(c)
	if err != nil {
		log.Fatal().Err(err).Msg("dataset load failed")
	}

	for _, name := range task.ListModels() {
		if _, err := task.Train(tasks.DatasetSource{Dataset: ds}, tasks.TrainOptions{ModelName: name}); err != nil {
			log.Fatal().Err(err).Str("model", name).Msg("training failed")
		}
		model, _, err := saveModel(task, c.StorePath, name)
		if err != nil {
			log.Warn().Err(err).Str("model", name).Msg("failed to save model")
		} else {
			log.Info().Str("model", name).Str("store", c.StorePath).Interface("params", model.GetParams()).Msg("model saved")
		}
	}

	results, _, err := task.Evaluate(ds, tasks.MetricNames(c.Metrics...), tasks.EvaluateOptions{
		BatchSize: c.BatchSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}

	for model, slices := range results.Metrics {
		for slice, values := range slices {
			log.Info().
				Str("run_id", results.RunID).
				Str("model", model).
				Str("slice", slice).
				Fields(map[string]interface{}{"scores": values}).
				Msg("evaluation result")
		}
	}
}

func buildTask(c cfg.Settings, m *metrics.Metrics) (*tasks.MortalityPrediction, error) {
	specs := make([]models.Spec, 0, len(c.Models))
	for _, ms := range c.Models {
		specs = append(specs, models.Spec{Name: ms.Name, Kind: ms.Kind, ConfigPath: ms.ConfigPath})
	}

	opts := []tasks.Option{tasks.WithRecorder(metrics.NewRecorder(m))}
	if len(c.TaskFeatures) > 0 {
		opts = append(opts, tasks.WithTaskFeatures(c.TaskFeatures...))
	}
	if len(c.TaskTarget) > 0 {
		opts = append(opts, tasks.WithTaskTarget(c.TaskTarget...))
	}
	return tasks.NewMortalityPrediction(specs, opts...)
}

func loadDataset(c cfg.Settings) (*data.Dataset, error) {
	ds := data.NewDataset()
	train, err := data.ReadCSV(c.TrainDataPath)
	if err != nil {
		return nil, err
	}
	ds.AddSplit("train", train)

	if c.TestDataPath != "" {
		test, err := data.ReadCSV(c.TestDataPath)
		if err != nil {
			return nil, err
		}
		ds.AddSplit("test", test)
	}
	return ds, nil
}

func saveModel(task *tasks.MortalityPrediction, storePath, name string) (models.Model, string, error) {
	_, model, err := task.GetModel(name)
	if err != nil {
		return nil, "", err
	}
	return model, name, model.Save(storePath, name)
}

func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		addr := fmt.Sprintf(":%d", port)
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}
