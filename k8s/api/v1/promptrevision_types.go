// Package v1 contains the PromptRevision CRD types.
package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced

// PromptRevision is the Schema for the promptrevisions API (store sync).
type PromptRevision struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`
	Spec   PromptRevisionSpec   `json:"spec,omitempty"`
	Status PromptRevisionStatus `json:"status,omitempty"`
}

// PromptRevisionSpec defines the desired state of PromptRevision.
type PromptRevisionSpec struct {
	Prompt   string            `json:"prompt,omitempty"`
	Content  string            `json:"content"`
	Message  string            `json:"message,omitempty"`
	Tags     []string          `json:"tags,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PromptRevisionStatus defines the observed state of PromptRevision.
type PromptRevisionStatus struct {
	Synced       bool   `json:"synced"`
	Version      int    `json:"version,omitempty"`
	ContentHash  string `json:"contentHash,omitempty"`
	LastSyncTime string `json:"lastSyncTime,omitempty"`
	Message      string `json:"message,omitempty"`
}

// +kubebuilder:object:root=true

// PromptRevisionList contains a list of PromptRevision.
type PromptRevisionList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []PromptRevision `json:"items"`
}

// DeepCopyObject implements runtime.Object.
func (p *PromptRevision) DeepCopyObject() runtime.Object {
	if p == nil {
		return nil
	}
	out := &PromptRevision{}
	p.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (p *PromptRevision) DeepCopyInto(out *PromptRevision) {
	*out = *p
	out.TypeMeta = p.TypeMeta
	p.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	p.Spec.DeepCopyInto(&out.Spec)
	p.Status.DeepCopyInto(&out.Status)
}

// DeepCopyInto copies PromptRevisionSpec.
func (s *PromptRevisionSpec) DeepCopyInto(out *PromptRevisionSpec) {
	*out = *s
	if s.Tags != nil {
		out.Tags = make([]string, len(s.Tags))
		copy(out.Tags, s.Tags)
	}
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
}

// DeepCopyInto copies PromptRevisionStatus.
func (s *PromptRevisionStatus) DeepCopyInto(out *PromptRevisionStatus) {
	*out = *s
}

// DeepCopyObject implements runtime.Object for PromptRevisionList.
func (p *PromptRevisionList) DeepCopyObject() runtime.Object {
	if p == nil {
		return nil
	}
	out := &PromptRevisionList{}
	p.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the list into out.
func (p *PromptRevisionList) DeepCopyInto(out *PromptRevisionList) {
	*out = *p
	out.TypeMeta = p.TypeMeta
	p.ListMeta.DeepCopyInto(&out.ListMeta)
	if p.Items != nil {
		out.Items = make([]PromptRevision, len(p.Items))
		for i := range p.Items {
			p.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}
