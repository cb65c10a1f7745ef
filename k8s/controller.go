// Package k8s provides a Kubernetes controller that syncs PromptRevision CRs
// into a prompt store.
package k8s

import (
	"context"
	"fmt"

	"github.com/promptdiff/promptdiff/core"
	v1 "github.com/promptdiff/promptdiff/k8s/api/v1"
	"github.com/promptdiff/promptdiff/store"
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// PromptRevisionReconciler reconciles PromptRevision CRs by recording them in
// a prompt store. Re-applying a CR with unchanged content is a no-op thanks to
// the store's content dedup.
type PromptRevisionReconciler struct {
	client.Client
	Scheme *runtime.Scheme
	Store  store.Store
}

// Reconcile adds the CR's content as a prompt version and updates status with
// the resulting version number and content hash.
func (r *PromptRevisionReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	cr := &v1.PromptRevision{}
	if err := r.Get(ctx, req.NamespacedName, cr); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	name := cr.Spec.Prompt
	if name == "" {
		name = req.Name
	}
	var metadata map[string]any
	if cr.Spec.Metadata != nil {
		metadata = make(map[string]any, len(cr.Spec.Metadata))
		for k, v := range cr.Spec.Metadata {
			metadata[k] = v
		}
	}

	version, err := r.Store.Add(ctx, name, cr.Spec.Content, cr.Spec.Message, metadata)
	if err != nil {
		logger.Error(err, "failed to store prompt revision")
		cr.Status.Synced = false
		cr.Status.Message = err.Error()
		_ = r.Status().Update(ctx, cr)
		return ctrl.Result{}, err
	}
	if len(cr.Spec.Tags) > 0 {
		if err := r.Store.SetTags(ctx, name, cr.Spec.Tags); err != nil {
			logger.Error(err, "failed to set prompt tags")
			cr.Status.Synced = false
			cr.Status.Message = err.Error()
			_ = r.Status().Update(ctx, cr)
			return ctrl.Result{}, err
		}
	}

	cr.Status.Synced = true
	cr.Status.Version = version.Version
	cr.Status.ContentHash = version.ContentHash
	cr.Status.LastSyncTime = core.NowISO()
	cr.Status.Message = ""
	if err := r.Status().Update(ctx, cr); err != nil {
		return ctrl.Result{}, err
	}
	logger.Info("synced prompt revision", "prompt", name, "version", version.Version)
	return ctrl.Result{}, nil
}

// SetupWithManager registers the reconciler with the manager.
func (r *PromptRevisionReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&v1.PromptRevision{}).
		Complete(r)
}

// NewScheme returns a scheme with promptdiff types registered.
func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()
	if err := v1.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("add promptdiff scheme: %w", err)
	}
	return scheme, nil
}
