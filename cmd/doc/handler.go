package doc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/easydoc/cmd/core"
	"github.com/projecteru2/easydoc/collection"
	"github.com/projecteru2/easydoc/config"
	"github.com/projecteru2/easydoc/document"
	"github.com/projecteru2/easydoc/progress"
	"github.com/projecteru2/easydoc/serializer"
	"github.com/projecteru2/easydoc/utils"
)

const retryInterval = 100 * time.Millisecond

type Handler struct {
	cmdcore.BaseHandler
}

// session is one command's view of the configured backend.
type session struct {
	conf   *config.Config
	codec  serializer.Serializer
	docs   *collection.Collection[Record]
	closer cmdcore.Closer
}

func (h Handler) open(cmd *cobra.Command) (context.Context, *session, error) {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return nil, nil, err
	}
	codec, err := cmdcore.InitSerializer(conf)
	if err != nil {
		return nil, nil, err
	}
	store, closer, err := cmdcore.InitStorage(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	docs := collection.New(store, codec, conf.PoolSize, document.WithTimeout[Record](conf.LockTimeoutDuration()))
	return ctx, &session{conf: conf, codec: codec, docs: docs, closer: closer}, nil
}

func (s *session) close(ctx context.Context) {
	if err := s.closer(ctx); err != nil {
		log.WithFunc("cmd.doc.close").Warnf(ctx, "close backend: %v", err)
	}
}

// retry reruns op while it fails for want of exclusive access.
func (s *session) retry(ctx context.Context, op func() error) error {
	return utils.RetryOn(ctx, document.ErrTimeout, s.conf.RetryAttempts, retryInterval, op)
}

func (h Handler) New(cmd *cobra.Command, args []string) error {
	set, err := parseAssignments(args)
	if err != nil {
		return err
	}
	ctx, s, err := h.open(cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	d := s.docs.Create()
	now := time.Now()
	if err := s.retry(ctx, func() error {
		return d.SyncUpdate(ctx, func(r *Record) { r.apply(set, nil, now) })
	}); err != nil {
		return fmt.Errorf("create %s: %w", d.Ref(), err)
	}
	fmt.Println(d.Ref())
	return nil
}

func (h Handler) Get(cmd *cobra.Command, args []string) error {
	ctx, s, err := h.open(cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	d, err := s.docs.Open(ctx, args[0])
	if err != nil {
		return err
	}
	// Records written by this tool always carry a creation time.
	if d.Data().CreatedAt.IsZero() {
		return fmt.Errorf("document %s not found", args[0])
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	d.View(func(r *Record) {
		_, _ = fmt.Fprintf(w, "REF\t%s\n", d.Ref())
		_, _ = fmt.Fprintf(w, "CREATED\t%s\n", r.CreatedAt.Local().Format(time.DateTime))
		_, _ = fmt.Fprintf(w, "UPDATED\t%s\n", r.UpdatedAt.Local().Format(time.DateTime))
		for _, k := range r.keys() {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", k, r.Fields[k])
		}
	})
	w.Flush() //nolint:errcheck,gosec
	return nil
}

func (h Handler) Set(cmd *cobra.Command, args []string) error {
	set, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	unset, _ := cmd.Flags().GetStringSlice("unset")
	if len(set) == 0 && len(unset) == 0 {
		return fmt.Errorf("nothing to set: give KEY=VALUE arguments or --unset")
	}
	ctx, s, err := h.open(cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	d, err := s.docs.Open(ctx, args[0])
	if err != nil {
		return err
	}
	now := time.Now()
	if err := s.retry(ctx, func() error {
		return d.SyncUpdate(ctx, func(r *Record) { r.apply(set, unset, now) })
	}); err != nil {
		return fmt.Errorf("update %s: %w", d.Ref(), err)
	}
	log.WithFunc("cmd.set").Infof(ctx, "updated %s", d.Ref())
	return nil
}

func (h Handler) Delete(cmd *cobra.Command, args []string) error {
	ctx, s, err := h.open(cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	var errs []error
	for _, ref := range args {
		d, err := s.docs.Open(ctx, ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.retry(ctx, func() error { return d.Delete(ctx) }); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", ref, err))
			continue
		}
		fmt.Printf("Deleted: %s\n", ref)
	}
	return errors.Join(errs...)
}

func (h Handler) List(cmd *cobra.Command, _ []string) error {
	ctx, s, err := h.open(cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	logger := log.WithFunc("cmd.list")
	tracker := progress.NewTracker(func(e collection.Event) {
		if e.Phase == collection.PhaseList {
			logger.Infof(ctx, "loading %d documents from %s backend", e.Total, s.conf.Backend)
		}
	})
	if err := s.docs.Load(ctx, tracker); err != nil {
		return err
	}
	all := s.docs.All()
	if len(all) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "REF\tFIELDS\tSIZE\tUPDATED")
	for _, d := range all {
		var size int64
		var fields string
		var updated time.Time
		d.View(func(r *Record) {
			if content, err := s.codec.Serialize(r); err == nil {
				size = int64(len(content))
			}
			fields = strings.Join(r.keys(), ",")
			updated = r.UpdatedAt
		})
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			d.Ref(),
			fields,
			cmdcore.FormatSize(size),
			updated.Local().Format(time.DateTime),
		)
	}
	w.Flush() //nolint:errcheck,gosec
	return nil
}
