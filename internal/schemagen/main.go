// Command schemagen generates the JSON schema for label configuration
// documents.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/macropower/autolabeler/api/v1beta1/labelconfigs"
)

var outFile = flag.String("o", "labelconfigs.v1beta1.json", "Output file for the generated schema")

func main() {
	flag.Parse()

	r := &jsonschema.Reflector{}

	jss := r.Reflect(labelconfigs.New())

	jsData, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		log.Fatalf("marshal JSON schema: %v", err)
	}

	err = os.WriteFile(*outFile, append(jsData, '\n'), 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
