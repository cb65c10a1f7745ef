// Command promptdiff-operator runs a Kubernetes controller that syncs
// PromptRevision CRs into a prompt store.
package main

import (
	"flag"
	"os"

	"github.com/promptdiff/promptdiff/k8s"
	v1 "github.com/promptdiff/promptdiff/k8s/api/v1"
	"github.com/promptdiff/promptdiff/store"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

func main() {
	var storeDir string
	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.StringVar(&storeDir, "store-dir", ".", "directory holding the prompt store")
	flag.Parse()
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(v1.AddToScheme(scheme))

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{Scheme: scheme})
	if err != nil {
		os.Exit(1)
	}

	ctx := ctrl.SetupSignalHandler()
	st := store.NewFileStore(storeDir)
	if err := st.Init(ctx); err != nil {
		os.Exit(1)
	}
	reconciler := &k8s.PromptRevisionReconciler{
		Client: mgr.GetClient(),
		Scheme: mgr.GetScheme(),
		Store:  st,
	}
	if err = reconciler.SetupWithManager(mgr); err != nil {
		os.Exit(1)
	}
	if err = mgr.Start(ctx); err != nil {
		os.Exit(1)
	}
}
