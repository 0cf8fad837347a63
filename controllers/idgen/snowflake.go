package idgen

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
)

// Init sets the node number used for every generated ID. It must run before
// the first GenerateID call to take effect.
func Init(nodeID int64) error {
	var err error
	nodeOnce.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// GenerateID returns a new snowflake ID, falling back to node 1 when Init was
// never called (tests, one-off tools).
func GenerateID() int64 {
	nodeOnce.Do(func() {
		node, _ = snowflake.NewNode(1)
	})
	return node.Generate().Int64()
}
