package common

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	snowflakeNode *snowflake.Node
	nodeOnce      sync.Once
)

func node() *snowflake.Node {
	nodeOnce.Do(func() {
		var err error
		snowflakeNode, err = snowflake.NewNode(rand.Int63n(1023))
		if err != nil {
			panic(err)
		}
	})
	return snowflakeNode
}

// UUIDint64 returns a snowflake id as int64.
func UUIDint64() int64 {
	return node().Generate().Int64()
}

// UUID returns a snowflake id as a decimal string.
func UUID() string {
	return node().Generate().String()
}

// ProductID generates a product identifier, "P" + snowflake id.
func ProductID() string {
	return fmt.Sprintf("P%s", node().Generate().String())
}

// TransactionID generates a transaction identifier, "T" + snowflake id.
func TransactionID() string {
	return fmt.Sprintf("T%s", node().Generate().String())
}
