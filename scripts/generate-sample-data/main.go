package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
)

// Generates a synthetic clinical cohort as train/test CSVs for the
// mortality CLI. The outcome follows a logistic model over age and
// admission type so fitted classifiers have real signal to find.
func main() {
	var (
		trainPath = flag.String("train", "train.csv", "Output path for the training CSV")
		testPath  = flag.String("test", "test.csv", "Output path for the test CSV")
		rows      = flag.Int("rows", 1000, "Number of training rows")
		testRows  = flag.Int("test-rows", 200, "Number of test rows")
		seed      = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()

	fmt.Printf("Generating synthetic cohort...\n")
	fmt.Printf("  Train: %s (%d rows)\n", *trainPath, *rows)
	fmt.Printf("  Test:  %s (%d rows)\n", *testPath, *testRows)

	rng := rand.New(rand.NewSource(*seed))

	if err := writeCohort(*trainPath, *rows, rng); err != nil {
		log.Fatalf("Failed to generate training data: %v", err)
	}
	if err := writeCohort(*testPath, *testRows, rng); err != nil {
		log.Fatalf("Failed to generate test data: %v", err)
	}

	fmt.Printf("✓ Generated %d rows\n", *rows+*testRows)
}

func writeCohort(path string, rows int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"age", "sex", "admission_type", "admission_location", "outcome_death"}
	if err := w.Write(header); err != nil {
		return err
	}

	deaths := 0
	for i := 0; i < rows; i++ {
		age := 18 + rng.Float64()*80
		sex := float64(rng.Intn(2))
		admissionType := float64(rng.Intn(3))     // elective, urgent, emergency
		admissionLocation := float64(rng.Intn(5)) // ward codes

		// Mortality risk rises with age and emergency admissions.
		logit := -6 + 0.06*age + 0.8*admissionType + 0.1*sex
		p := 1 / (1 + math.Exp(-logit))

		outcome := 0.0
		if rng.Float64() < p {
			outcome = 1
			deaths++
		}

		record := []string{
			strconv.FormatFloat(age, 'f', 1, 64),
			strconv.FormatFloat(sex, 'f', 0, 64),
			strconv.FormatFloat(admissionType, 'f', 0, 64),
			strconv.FormatFloat(admissionLocation, 'f', 0, 64),
			strconv.FormatFloat(outcome, 'f', 0, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	fmt.Printf("  %s: %d rows, %.1f%% mortality\n", path, rows, 100*float64(deaths)/float64(rows))
	return nil
}
