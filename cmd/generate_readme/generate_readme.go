package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/keshon/cvc/internal/command"
	_ "github.com/keshon/cvc/internal/command/builtin"
)

func main() {
	in := flag.String("template", "README.md.tmpl", "template to render")
	out := flag.String("out", "README.md", "output file")
	flag.Parse()

	tplBytes, err := os.ReadFile(*in)
	if err != nil {
		fmt.Printf("Failed to read template: %v\n", err)
		os.Exit(1)
	}

	tpl, err := template.New("readme").Parse(string(tplBytes))
	if err != nil {
		fmt.Printf("Failed to parse template: %v\n", err)
		os.Exit(1)
	}

	var sections strings.Builder
	for _, cmd := range command.AllCommands() {
		fmt.Fprintf(&sections, "### %s\n```\ncvc %s\n\n%s\n```\n\n",
			cmd.Name(),
			cmd.Usage(),
			strings.TrimRight(cmd.Help(), "\n"),
		)
	}

	outFile, err := os.Create(*out)
	if err != nil {
		fmt.Printf("Failed to create %s: %v\n", *out, err)
		os.Exit(1)
	}
	defer outFile.Close()

	if err := tpl.Execute(outFile, map[string]string{"CommandSections": sections.String()}); err != nil {
		fmt.Printf("Failed to render template: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s generated successfully\n", *out)
}
