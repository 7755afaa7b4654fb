// Package debugutil carries the operator-facing debug affordances that
// aren't themselves part of the protocol: a pprof endpoint, grounded on
// the teacher repo's debug.go/StartPprofServer.
package debugutil

import (
	"net/http"
	_ "net/http/pprof" // registers the pprof handlers on http.DefaultServeMux

	"github.com/sirupsen/logrus"
)

// StartPprofServer launches a pprof HTTP endpoint on addr in the
// background. It never blocks the caller; a failure to bind is logged,
// not fatal, since pprof is a debugging aid rather than a spec.md
// requirement.
func StartPprofServer(addr string, log *logrus.Logger) {
	go func() {
		log.WithField("addr", addr).Info("starting pprof endpoint")
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.WithError(err).Warn("pprof endpoint stopped")
		}
	}()
}
