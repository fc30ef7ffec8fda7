// Command evaluate scores a single deal from JSON files and prints the result.
//
//	evaluate -deal deal.json [-profile profile.json] [-kind combined] [-tables tables.yaml]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"DealSentinel/internal/model"
	"DealSentinel/internal/service"
	"DealSentinel/internal/tables"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	dealPath := flag.String("deal", "", "path to deal JSON (required)")
	profilePath := flag.String("profile", "", "path to athlete profile JSON")
	kind := flag.String("kind", string(model.KindCombined), "clearinghouse, valuation or combined")
	tablesPath := flag.String("tables", "", "lookup tables YAML (defaults to the built-in tables)")
	flag.Parse()

	if *dealPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	tbl := tables.Default()
	if *tablesPath != "" {
		var err error
		if tbl, err = tables.Load(*tablesPath); err != nil {
			log.Fatalf("[FATAL] load tables: %v", err)
		}
	}

	var req service.Request
	if err := readJSON(*dealPath, &req.Deal); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if *profilePath != "" {
		if err := readJSON(*profilePath, &req.Profile); err != nil {
			log.Fatalf("[FATAL] %v", err)
		}
	}

	svc := service.NewService(tbl, nil, nil, nil, 1)
	ctx := context.Background()

	var ev *model.Evaluation
	var err error
	switch model.EvaluationKind(*kind) {
	case model.KindClearinghouse:
		ev, err = svc.Clearinghouse(ctx, req)
	case model.KindValuation:
		ev, err = svc.Valuation(ctx, req)
	case model.KindCombined:
		ev, err = svc.Evaluate(ctx, req)
	default:
		log.Fatalf("[FATAL] unknown kind %q", *kind)
	}

	var inv *model.InvalidInputError
	if errors.As(err, &inv) {
		fmt.Fprintf(os.Stderr, "invalid input: %v\n", inv)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("[FATAL] evaluate: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ev); err != nil {
		log.Fatalf("[FATAL] encode result: %v", err)
	}
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
