package maniac

import "github.com/cocosip/flif16/rac"

// stackFrame mirrors the reference decoder's FLIF16MANIACStack: one
// not-yet-fully-processed node awaiting its property/count/split_val reads.
type stackFrame struct {
	id      int32
	parent  int32
	min     int32
	max     int32
	max2    int32
	mode    uint8 // 0: root, 1: right child, 2: left child
	visited bool
}

// TreeBuilder decodes one MANIAC tree from the bitstream. It is a resumable
// state machine (segment field plus an in-flight sub-reader) so a suspend in
// the middle of any one integer read picks back up without re-reading bits,
// matching the reference decoder's segment2-driven
// ff_flif16_read_maniac_tree.
type TreeBuilder struct {
	tree       *Tree
	propRanges []PropRange
	stack      []stackFrame

	propertyCtx *rac.ChanceContext
	countCtx    *rac.ChanceContext
	splitCtx    *rac.ChanceContext

	segment int
	oldMin  int32
	oldMax  int32

	inflight *rac.GNZReader

	done bool
}

// NewTreeBuilder starts building a tree over the given property bounds.
// propRanges is mutated in place as the tree descends (narrowed ranges are
// restored on backtrack), matching the reference implementation's prop_ranges
// array.
func NewTreeBuilder(propRanges []PropRange) *TreeBuilder {
	b := &TreeBuilder{
		tree:        &Tree{Nodes: make([]Node, 1, baseSize)},
		propRanges:  propRanges,
		stack:       make([]stackFrame, 0, baseSize),
		propertyCtx: rac.NewChanceContext(),
		countCtx:    rac.NewChanceContext(),
		splitCtx:    rac.NewChanceContext(),
	}
	b.tree.Nodes[0] = Node{Property: 0}
	b.stack = append(b.stack, stackFrame{id: 0, mode: 0})
	return b
}

// Step advances the build as far as buffered input allows. It returns
// (tree, true, nil) once the whole tree has been read.
func (b *TreeBuilder) Step(d *rac.Decoder) (*Tree, bool, error) {
	if b.done {
		return b.tree, true, nil
	}

	for {
		if len(b.stack) == 0 {
			b.done = true
			return b.tree, true, nil
		}
		top := &b.stack[len(b.stack)-1]

		if b.segment == 0 {
			oldp := top.parent
			if !top.visited {
				switch top.mode {
				case 1:
					b.propRanges[oldp] = PropRange{Min: top.min, Max: top.max}
				case 2:
					b.propRanges[oldp].Min = top.min
				}
			} else {
				b.propRanges[oldp].Max = top.max2
				b.stack = b.stack[:len(b.stack)-1]
				continue
			}
			top.visited = true
			b.segment = 1
		}

		if b.segment == 1 {
			if b.inflight == nil {
				b.inflight = rac.NewGNZReader(0, int64(len(b.propRanges)))
			}
			val, okDone, err := b.inflight.Step(d, b.propertyCtx)
			if err != nil {
				return nil, false, err
			}
			if !okDone {
				return nil, false, rac.ErrNeedMoreInput
			}
			b.inflight = nil
			prop := int32(val) - 1
			b.tree.Nodes[top.id].Property = prop
			if prop == -1 {
				b.stack = b.stack[:len(b.stack)-1]
				b.segment = 0
				continue
			}
			b.tree.Nodes[top.id].ChildID = int32(len(b.tree.Nodes))
			b.oldMin = b.propRanges[prop].Min
			b.oldMax = b.propRanges[prop].Max
			b.segment = 2
		}

		if b.segment == 2 {
			if b.inflight == nil {
				b.inflight = rac.NewGNZReader(MinCount, MaxCount)
			}
			val, okDone, err := b.inflight.Step(d, b.countCtx)
			if err != nil {
				return nil, false, err
			}
			if !okDone {
				return nil, false, rac.ErrNeedMoreInput
			}
			b.inflight = nil
			b.tree.Nodes[top.id].Count = int32(val)
			b.segment = 3
		}

		if b.segment == 3 {
			if b.inflight == nil {
				b.inflight = rac.NewGNZReader(int64(b.oldMin), int64(b.oldMax)-1)
			}
			val, okDone, err := b.inflight.Step(d, b.splitCtx)
			if err != nil {
				return nil, false, err
			}
			if !okDone {
				return nil, false, rac.ErrNeedMoreInput
			}
			b.inflight = nil
			splitVal := int32(val)
			b.tree.Nodes[top.id].SplitVal = splitVal

			prop := b.tree.Nodes[top.id].Property
			childID := b.tree.Nodes[top.id].ChildID
			top.parent = prop
			top.max2 = b.oldMax

			b.tree.Nodes = append(b.tree.Nodes, Node{}, Node{})

			b.stack = append(b.stack,
				stackFrame{id: childID + 1, parent: prop, min: b.oldMin, max: splitVal, mode: 1},
				stackFrame{id: childID, parent: prop, min: splitVal + 1, mode: 2},
			)
			b.segment = 0
		}
	}
}
