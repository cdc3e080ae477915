package others

import (
	"fmt"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/easydoc/cmd/core"
	"github.com/projecteru2/easydoc/gc"
	"github.com/projecteru2/easydoc/storage/file"
	"github.com/projecteru2/easydoc/version"
)

type Handler struct {
	cmdcore.BaseHandler
}

// GC removes leftovers of interrupted writes from backends that can have
// them. Only the file backend can.
func (h Handler) GC(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	store, closer, err := cmdcore.InitStorage(ctx, conf)
	if err != nil {
		return err
	}
	defer func() { _ = closer(ctx) }()

	maxAge, err := cmd.Flags().GetDuration("max-age")
	if err != nil {
		return err
	}
	fs, ok := store.(*file.Store)
	if !ok {
		log.WithFunc("cmd.gc").Infof(ctx, "%s backend leaves no temp files, nothing to collect", conf.Backend)
		return nil
	}
	o := gc.New()
	fs.RegisterGC(o, maxAge)
	n, err := o.Run(ctx)
	if err != nil {
		return err
	}
	log.WithFunc("cmd.gc").Infof(ctx, "GC completed, %d stale files removed", n)
	return nil
}

func (h Handler) Version(_ *cobra.Command, _ []string) error {
	fmt.Print(version.String())
	return nil
}
