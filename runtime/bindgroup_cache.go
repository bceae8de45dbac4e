package runtime

import (
	"fmt"
	"strings"

	internalcache "github.com/lumenforge/salon/internal/cache"

	"github.com/lumenforge/salon/gpucore"
)

// bindGroupCacheCap is the §4.2 hard cap: "A hard cap (≈100 entries) bounds
// memory."
const bindGroupCacheCap = 100

// BindGroupCache is keyed by a structural key derived from each entry's
// (binding_index, resource_kind, resource_identity, mip) — mip is folded
// into resource_identity here since a TextureViewID already names one
// specific mip level in this module's Device model. One op implementation
// owns one BindGroupCache; Clear() must run at the start of every reset
// (§4.2), otherwise bind groups keep their referenced textures/buffers
// alive past the execution that produced them.
type BindGroupCache struct {
	device gpucore.Device
	groups *internalcache.Cache[string, gpucore.BindGroupID]
}

// NewBindGroupCache creates an empty cache bounded by the §4.2 cap.
func NewBindGroupCache(device gpucore.Device) *BindGroupCache {
	return &BindGroupCache{
		device: device,
		groups: internalcache.New[string, gpucore.BindGroupID](bindGroupCacheCap),
	}
}

// GetOrCreate returns a cached bind group for desc, or builds and caches a
// new one.
func (c *BindGroupCache) GetOrCreate(desc gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	key := bindGroupKey(desc)
	if id, ok := c.groups.Get(key); ok {
		return id, nil
	}
	id, err := c.device.CreateBindGroup(desc)
	if err != nil {
		return 0, fmt.Errorf("runtime: bind group: %w", err)
	}
	c.groups.Set(key, id)
	return id, nil
}

// Clear drops every cached bind group. Must be called at the start of each
// op implementation's reset().
func (c *BindGroupCache) Clear() { c.groups.Clear() }

// Len reports the number of cached bind groups (for the §8 invariant "bind
// group cache size ≤ N (small constant per op)").
func (c *BindGroupCache) Len() int { return c.groups.Len() }

func bindGroupKey(desc gpucore.BindGroupDesc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "layout=%d", desc.Layout)
	for _, e := range desc.Entries {
		fmt.Fprintf(&b, ";b=%d,buf=%d:%d:%d,tex=%d,samp=%d", e.Binding, e.Buffer, e.Offset, e.Size, e.Texture, e.Sampler)
	}
	return b.String()
}
