package stream_test

import (
	"net"
	"testing"
	"time"

	"github.com/m-lab/memcache-info/stream"
)

func TestReadExact(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		server.Write([]byte("hel"))
		time.Sleep(10 * time.Millisecond)
		server.Write([]byte("lo"))
	}()

	s := stream.New(client)
	got, err := s.ReadExact(5)
	if err != nil {
		t.Fatalf("ReadExact failed: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("ReadExact = %q, want %q", got, "hello")
	}
}

func TestReadExactShortRead(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		server.Write([]byte("ab"))
		server.Close()
	}()

	s := stream.New(client)
	if _, err := s.ReadExact(5); err != stream.ErrShortRead {
		t.Errorf("ReadExact on premature close = %v, want ErrShortRead", err)
	}
}

func TestReadLine(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go server.Write([]byte("VALUE key1 0 5\r\n"))

	s := stream.New(client)
	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != "VALUE key1 0 5" {
		t.Errorf("ReadLine = %q, want %q", line, "VALUE key1 0 5")
	}
}

func TestReadLineBadCRLF(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		// CR not followed by LF: a bare CR then more text then a real LF,
		// which bufio.ReadString('\n') will still return as one "line".
		server.Write([]byte("bad\rline\n"))
		server.Close()
	}()

	s := stream.New(client)
	if _, err := s.ReadLine(); err != stream.ErrBadCRLF {
		t.Errorf("ReadLine on bad CRLF = %v, want ErrBadCRLF", err)
	}
}

func TestWriteAll(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 11)
		n, _ := server.Read(buf)
		done <- buf[:n]
	}()

	s := stream.New(client)
	if err := s.WriteAll([]byte("hello world")); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	got := <-done
	if string(got) != "hello world" {
		t.Errorf("server received %q, want %q", got, "hello world")
	}
}
