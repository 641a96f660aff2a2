package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/aretw0/ntrode/internal/config"
)

// Validate loads the configuration at path and builds every handler it names
// without running anything. It reports one line per container to w.
func Validate(path string, w io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	reg, client := newRegistry(cfg, filepath.Dir(path))
	if client != nil {
		defer client.Close()
	}
	if err := checkHandlers(cfg, reg); err != nil {
		return err
	}
	for _, n := range cfg.NTrodes {
		fmt.Fprintf(w, "%s: %d handler(s)", n.Name, len(n.Handlers))
		for _, h := range n.Handlers {
			fmt.Fprintf(w, " %s", h)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// Kinds returns every handler kind available to configuration files.
func Kinds() []string {
	reg, client := newRegistry(&config.File{Redis: config.Redis{Addr: defaultRedisAddr}}, "")
	defer client.Close()
	return reg.Kinds()
}
