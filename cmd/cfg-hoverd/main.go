// Command cfg-hoverd runs the full cfgc pipeline over a fixture file and
// then serves the hover overrides it left behind over LSP, the same way an
// editor would ask kanso-lsp for hover text. Grounded on
// cmd/kanso-lsp/main.go's commonlog/protocol.Handler/server.NewServer
// wiring; the parse-then-serve split is replaced by compile-then-serve
// since there's no source text here, only a fixture and its compiled
// namespace.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"cfgmid/internal/cfgbuild"
	"cfgmid/internal/fixture"
	"cfgmid/internal/hoverd"
	"cfgmid/internal/passmgr"
	"cfgmid/internal/reach"
	"cfgmid/internal/reachability"
	"cfgmid/internal/selector"
)

const lsName = "cfg-hoverd"

func main() {
	target := flag.String("target", "", "override the fixture's compile target")
	addressBits := flag.Int("address-bits", 0, "override the fixture's address width in bits")
	valueBits := flag.Int("value-bits", 0, "override the fixture's value width in bits")
	maxValues := flag.Int("max-values", 100, "maximum tracked constants per variable in the reaching-values lattice")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage: cfg-hoverd [-target=evm|account-model|wasm] <fixture.json>")
		os.Exit(1)
	}

	reach.MaxValues = *maxValues

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("reading %s: %s", flag.Arg(0), err)
	}
	ns, err := fixture.Load(f, *target, *addressBits, *valueBits)
	f.Close()
	if err != nil {
		log.Fatalf("loading fixture: %s", err)
	}

	if err := reachability.Analyze(ns); err != nil {
		log.Fatalf("reachability: %s", err)
	}

	pipeline := passmgr.NewPipeline(os.Stderr, true)
	for _, fn := range ns.Functions {
		cfg, err := cfgbuild.Build(fn, ns)
		if err != nil {
			log.Fatalf("function %s: %s", fn.Name, err)
		}
		selector.Assign(cfg, fn, ns)
		if err := pipeline.Run(cfg, ns); err != nil {
			log.Fatalf("function %s: %s", fn.Name, err)
		}
	}

	commonlog.Configure(1, nil)

	h := hoverd.NewHandler(ns)
	handler := protocol.Handler{
		Initialize:           h.Initialize,
		Initialized:          h.Initialized,
		Shutdown:             h.Shutdown,
		SetTrace:             h.SetTrace,
		TextDocumentDidOpen:  h.TextDocumentDidOpen,
		TextDocumentDidClose: h.TextDocumentDidClose,
		TextDocumentHover:    h.TextDocumentHover,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting cfg-hoverd server...")
	if err := s.RunStdio(); err != nil {
		log.Println("Error starting cfg-hoverd server:", err)
		os.Exit(1)
	}
}
