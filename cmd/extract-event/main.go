package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/deepfence/MispHarvester/pkg/config"
	"github.com/deepfence/MispHarvester/pkg/extract"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: extract-event <event.json>... [-allow md5,sha256,...]")
		os.Exit(1)
	}

	allowList := config.DefaultAllowList
	var files []string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		if args[i] == "-allow" && i+1 < len(args) {
			allowList = strings.Split(args[i+1], ",")
			i++
			continue
		}
		files = append(files, args[i])
	}

	ex := extract.New(allowList)
	records := []extract.Record{}
	for _, f := range files {
		recs, err := ex.ExtractFile(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", f, err)
			continue
		}
		records = append(records, recs...)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		fmt.Printf("Error encoding records: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Extracted %d records from %d files\n", len(records), len(files))
}
