package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/mroshb/astro_bot/internal/catalog"
	"github.com/mroshb/astro_bot/internal/services"
	"github.com/mroshb/astro_bot/pkg/utils"
)

func main() {
	path := flag.String("file", "data/dsos.json", "catalog file to inspect")
	object := flag.String("object", "", "print the details of one entry by canonical name")
	flag.Parse()

	cat, err := catalog.Load(context.Background(), catalog.FileSource{Path: *path})
	if err != nil {
		log.Fatal(err)
	}

	if *object != "" {
		e, ok := cat.Lookup(*object)
		if !ok {
			log.Fatalf("no entry named %q", *object)
		}
		fmt.Printf("Name: %s\nAccepted: %s\nReveal: %s\nImages: %d\n",
			e.Name, strings.Join(e.AcceptedNames(), ", "), e.DisplayName(), len(e.Images))
		for _, m := range services.DefaultModes {
			fmt.Printf("In mode %s: %v\n", m.Key, e.Eligible() && m.Filter(e))
		}
		return
	}

	fmt.Printf("Entries: %d\n", cat.Len())

	queues := services.NewQueueManager(cat.Entries(), services.DefaultModes, utils.NewRand(0))
	for _, m := range services.DefaultModes {
		fmt.Printf("Mode %s (%s): %d eligible\n", m.Key, m.Label, queues.EligibleCount(m.Key))
	}

	for _, e := range cat.Entries() {
		if !e.Eligible() {
			fmt.Printf("Not eligible (no images): %s\n", e.Name)
		}
	}
}
