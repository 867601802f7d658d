package domain

import (
	"maps"

	"github.com/aretw0/arche/pkg/progress"
)

// Root is the project node. It holds the folder index and the project-wide
// progress channel, whose summary counts every processing event.
type Root struct {
	base
	children
	folders  map[string]string
	progress *progress.Channel
}

// NewRoot constructs the root of a project tree. Channel options are applied
// after the channel is named with the node id.
func NewRoot(a Attrs, folders map[string]string, opts ...progress.Option) (*Root, error) {
	b, err := newBase(KindRoot, a, nil)
	if err != nil {
		return nil, err
	}
	c, err := newChildren(KindRoot, a.Children, nil)
	if err != nil {
		return nil, err
	}

	index := maps.Clone(folders)
	if index == nil {
		index = map[string]string{}
	}

	opts = append([]progress.Option{progress.WithName(b.id)}, opts...)
	return &Root{
		base:     b,
		children: c,
		folders:  index,
		progress: progress.NewCountChannel(opts...),
	}, nil
}

// Folders returns a copy of the folder index (folder role → node id).
func (r *Root) Folders() map[string]string {
	return maps.Clone(r.folders)
}

// Progress returns the project-wide channel.
func (r *Root) Progress() *progress.Channel {
	return r.progress
}
