// Package hwinventory defines the typed shape of a per-node hardware
// inventory document (processor, accelerator, and memory FRU collections)
// and the Fingerprinter that reduces one document to a component-count
// Fingerprint. Each FRU resource gets its own typed struct rather than a
// single untyped map.
package hwinventory

// Document is the typed realization of the inventory payload, whose
// relevant substructure by JSON pointer is:
//
//	/Nodes/0/Processors/*/PopulatedFRU/ProcessorFRUInfo/Model
//	/Nodes/0/NodeAccels/*/PopulatedFRU/NodeAccelFRUInfo/Model
//	/Nodes/0/Memory/*/PopulatedFRU/MemoryFRUInfo/CapacityMiB
type Document struct {
	Nodes []Node `json:"Nodes"`
}

// Node is one entry under /Nodes. Only index 0 is consulted, matching the
// pointer paths above; additional entries are ignored.
type Node struct {
	Processors []Processor `json:"Processors"`
	NodeAccels []NodeAccel `json:"NodeAccels"`
	Memory     []Memory    `json:"Memory"`
}

// Processor corresponds to one entry under /Nodes/0/Processors.
type Processor struct {
	PopulatedFRU *ProcessorFRU `json:"PopulatedFRU"`
}

// ProcessorFRU wraps the nested FRU info Redfish-shaped documents carry.
type ProcessorFRU struct {
	ProcessorFRUInfo ProcessorFRUInfo `json:"ProcessorFRUInfo"`
}

// ProcessorFRUInfo carries the processor's model string.
type ProcessorFRUInfo struct {
	Model string `json:"Model"`
}

// NodeAccel corresponds to one entry under /Nodes/0/NodeAccels.
type NodeAccel struct {
	PopulatedFRU *NodeAccelFRU `json:"PopulatedFRU"`
}

// NodeAccelFRU wraps the nested FRU info for an accelerator.
type NodeAccelFRU struct {
	NodeAccelFRUInfo NodeAccelFRUInfo `json:"NodeAccelFRUInfo"`
}

// NodeAccelFRUInfo carries the accelerator's model string.
type NodeAccelFRUInfo struct {
	Model string `json:"Model"`
}

// Memory corresponds to one entry under /Nodes/0/Memory.
type Memory struct {
	PopulatedFRU *MemoryFRU `json:"PopulatedFRU"`
}

// MemoryFRU wraps the nested FRU info for a DIMM.
type MemoryFRU struct {
	MemoryFRUInfo MemoryFRUInfo `json:"MemoryFRUInfo"`
}

// MemoryFRUInfo carries a DIMM's populated capacity.
type MemoryFRUInfo struct {
	CapacityMiB int64 `json:"CapacityMiB"`
}

// ProcessorModels implements ports.RawDocument.
func (d Document) ProcessorModels() []string {
	node := d.firstNode()
	if node == nil {
		return nil
	}
	models := make([]string, 0, len(node.Processors))
	for _, p := range node.Processors {
		if p.PopulatedFRU == nil {
			continue
		}
		if model := p.PopulatedFRU.ProcessorFRUInfo.Model; model != "" {
			models = append(models, model)
		}
	}
	return models
}

// AcceleratorModels implements ports.RawDocument.
func (d Document) AcceleratorModels() []string {
	node := d.firstNode()
	if node == nil {
		return nil
	}
	models := make([]string, 0, len(node.NodeAccels))
	for _, a := range node.NodeAccels {
		if a.PopulatedFRU == nil {
			continue
		}
		if model := a.PopulatedFRU.NodeAccelFRUInfo.Model; model != "" {
			models = append(models, model)
		}
	}
	return models
}

// MemoryCapacitiesMiB implements ports.RawDocument.
func (d Document) MemoryCapacitiesMiB() []int64 {
	node := d.firstNode()
	if node == nil {
		return nil
	}
	caps := make([]int64, 0, len(node.Memory))
	for _, m := range node.Memory {
		if m.PopulatedFRU == nil {
			continue
		}
		if cap := m.PopulatedFRU.MemoryFRUInfo.CapacityMiB; cap > 0 {
			caps = append(caps, cap)
		}
	}
	return caps
}

func (d Document) firstNode() *Node {
	if len(d.Nodes) == 0 {
		return nil
	}
	return &d.Nodes[0]
}
