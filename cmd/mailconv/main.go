package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/straja-ai/nlp-phishing/internal/fixture"
)

func main() {
	in := flag.String("in", "Testmail.eml", "path to the .eml file to convert")
	out := flag.String("out", "eml_input.json", "path of the job JSON to write")
	tlp := flag.Int("tlp", 2, "TLP value stored in the job")
	flag.Parse()

	if err := fixture.Convert(*in, *out, *tlp); err != nil {
		log.Fatalf("mailconv: %v", err)
	}
	fmt.Printf("%s has been created with Base64 encoded email content.\n", *out)
}
