/*
DESCRIPTION
  queue.go adapts a stream of control messages, such as those consumed from
  a message broker queue, to the line oriented reader a Watcher expects.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package quit

import (
	"bytes"
	"errors"
	"io"
)

// errQueueClosed ends a QueueReader when its message channel is closed.
var errQueueClosed = errors.New("control queue closed")

// QueueReader returns a reader of the messages received on msgs, one line
// per message. Reads fail once msgs is closed.
func QueueReader(msgs <-chan []byte) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		for m := range msgs {
			m = bytes.TrimRight(m, "\r\n")
			line := make([]byte, len(m)+1)
			copy(line, m)
			line[len(m)] = '\n'
			_, err := pw.Write(line)
			if err != nil {
				return
			}
		}
		pw.CloseWithError(errQueueClosed)
	}()
	return pr
}
