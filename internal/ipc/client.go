package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

const dialTimeout = 2 * time.Second

// Send dials the daemon, writes one command and reads the reply. An
// error response comes back as a Response, not an error; errors mean
// the daemon could not be reached or spoke garbage.
func Send(port int, command Command) (Response, error) {
	conn, err := net.DialTimeout("tcp", Address(port), dialTimeout)
	if err != nil {
		return Response{}, fmt.Errorf("connect to daemon: %w", err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	payload, err := json.Marshal(command)
	if err != nil {
		return Response{}, fmt.Errorf("marshal command: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := conn.Write(payload); err != nil {
		return Response{}, fmt.Errorf("send command: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var response Response
	if err := json.Unmarshal(line, &response); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return response, nil
}

// Running reports whether a daemon answers pings on port.
func Running(port int) bool {
	response, err := Send(port, Command{Command: CommandPing})
	return err == nil && response.Type == TypePong
}
