package localfs

import (
	"flag"
	"fmt"

	"xdao.co/ldcs/vault"
	"xdao.co/ldcs/vault/vaultregistry"
)

var flagLocalDir string

func init() {
	vaultregistry.MustRegister(vaultregistry.Backend{
		Name:        "localfs",
		Description: "Local filesystem vault (directory)",
		Usage:       vaultregistry.UsageCLI | vaultregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagLocalDir, "localfs-dir", "", "LocalFS vault directory (for --backend=localfs)")
		},
		Open: func() (vault.Store, func() error, error) {
			if flagLocalDir == "" {
				return nil, nil, fmt.Errorf("missing --localfs-dir")
			}
			s, err := New(flagLocalDir)
			return s, nil, err
		},
	})
}
