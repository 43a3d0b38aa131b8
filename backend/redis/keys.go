package redis

import (
	"fmt"
	"strings"

	"github.com/cschleiden/swf-workers/backend/local"
	"github.com/cschleiden/swf-workers/core"
)

type keys struct {
	prefix string
}

func newKeys(prefix string) *keys {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &keys{prefix: prefix}
}

// executionKey returns the key for the serialized execution document
func (k *keys) executionKey(domain core.Domain, execution core.WorkflowExecution) string {
	return fmt.Sprintf("%sexecution:%s:%s:%s", k.prefix, domain, execution.WorkflowID, execution.RunID)
}

// currentRunKey returns the key holding the run id of the latest execution of a workflow id
func (k *keys) currentRunKey(domain core.Domain, workflowID string) string {
	return fmt.Sprintf("%scurrent-run:%s:%s", k.prefix, domain, workflowID)
}

// queueKey returns the key for the LIST of queued tasks
func (k *keys) queueKey(queue local.Queue) string {
	return fmt.Sprintf("%squeue:%s:%s:%s", k.prefix, queue.Kind, queue.Domain, queue.TaskList)
}

func (k *keys) leaseKey(token string) string {
	return fmt.Sprintf("%slease:%s", k.prefix, token)
}

// leasesKey returns the key for the ZSET of all lease tokens, scored by expiration in unix
// milliseconds
func (k *keys) leasesKey() string {
	return k.prefix + "leases"
}
