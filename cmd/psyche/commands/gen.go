// cmd/psyche/commands/gen.go
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maroar/psyche-harness/internal/cast"
	"github.com/maroar/psyche-harness/internal/config"
	"github.com/maroar/psyche-harness/internal/cparse"
	"github.com/maroar/psyche-harness/internal/diag"
	"github.com/maroar/psyche-harness/internal/generator"
)

// GenCommand handles `psyche gen <file.c> [--csv] [--dot]`: parse the
// source, analyze every function definition it contains, and write one
// harness main file per function to "<dir>/mains/".
func GenCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: psyche gen <file.c> [--csv] [--dot]")
	}

	srcPath := args[0]
	withDot := false
	opts := config.Defaults()
	if loaded, err := config.Load(filepath.Dir(srcPath)); err == nil {
		opts = loaded
	}
	for _, a := range args[1:] {
		switch a {
		case "--csv":
			opts.GenerateCSV = true
		case "--dot":
			withDot = true
		}
	}

	src, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", srcPath, err)
	}

	tu, err := cparse.Parse(string(src))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", srcPath, err)
	}

	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	dir := filepath.Dir(srcPath)
	mainDir := filepath.Join(dir, "mains")
	dotDir := ""
	if withDot {
		dotDir = filepath.Join(dir, "dot")
		if err := os.MkdirAll(dotDir, 0o755); err != nil {
			return fmt.Errorf("creating dot dir: %w", err)
		}
	}

	diags := diag.NewCollector()
	var generated, skipped int

	for _, d := range tu.Decls {
		fn, ok := d.(*cast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		res, err := generator.Generate(tu, fn, diags, generator.Params{
			SourceBaseName: base,
			MainDir:        mainDir,
			DotDir:         dotDir,
			IncludeStub:    "../../headerStub.c",
			Opts:           opts,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", fn.Name, err)
			skipped++
			continue
		}
		fmt.Printf("generated %s\n", res.MainFilePath)
		generated++
	}

	for _, d := range diags.All() {
		fmt.Fprintln(os.Stderr, d.Error())
	}
	fmt.Printf("%d function(s) generated, %d skipped\n", generated, skipped)
	return nil
}

// ListCommand handles `psyche list <file.c>`: print every function
// definition the parser found, without running any analysis.
func ListCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: psyche list <file.c>")
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	tu, err := cparse.Parse(string(src))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	for _, d := range tu.Decls {
		fn, ok := d.(*cast.FuncDecl)
		if !ok {
			continue
		}
		status := "declared"
		if fn.Body != nil {
			status = "defined"
		}
		fmt.Printf("%-8s %s(%d params)\n", status, fn.Name, len(fn.Params))
	}
	return nil
}
