package main

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/strombase/strom"
	"github.com/strombase/strom/common"
	"github.com/strombase/strom/common/buf"
	E "github.com/strombase/strom/common/exceptions"
	F "github.com/strombase/strom/common/format"
	"github.com/strombase/strom/common/log"
	"github.com/strombase/strom/common/stream"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logger = log.NewLogger("http-chk")

func main() {
	command := &cobra.Command{
		Use:     "http-chk",
		Short:   "HTTP/1.0 probes over fd streams",
		Version: strom.VersionStr,
	}
	command.AddCommand(serveCommand(), getCommand())
	if err := command.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

type serveFlags struct {
	Listen     string `json:"listen"`
	Status     int    `json:"status"`
	Body       string `json:"body"`
	ConfigFile string
}

func serveCommand() *cobra.Command {
	f := new(serveFlags)
	command := &cobra.Command{
		Use:   "serve",
		Short: "answer a single probe request and close",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runServe(cmd, f); err != nil {
				logrus.Fatal(err)
			}
		},
	}
	command.Flags().StringVarP(&f.Listen, "listen", "l", "127.0.0.1:8080", "Listen address.")
	command.Flags().IntVar(&f.Status, "status", http.StatusOK, "Response status code.")
	command.Flags().StringVar(&f.Body, "body", "ok\n", "Response body.")
	command.Flags().StringVarP(&f.ConfigFile, "config", "c", "", "Use a configuration file.")
	return command
}

func runServe(cmd *cobra.Command, f *serveFlags) error {
	if f.ConfigFile != "" {
		configFile, err := os.ReadFile(f.ConfigFile)
		if err != nil {
			return E.Cause(err, "read config file")
		}
		flagsNew := new(serveFlags)
		err = json.Unmarshal(configFile, flagsNew)
		if err != nil {
			return E.Cause(err, "decode config file")
		}
		if flagsNew.Listen != "" && !cmd.Flags().Changed("listen") {
			f.Listen = flagsNew.Listen
		}
		if flagsNew.Status != 0 && !cmd.Flags().Changed("status") {
			f.Status = flagsNew.Status
		}
		if flagsNew.Body != "" && !cmd.Flags().Changed("body") {
			f.Body = flagsNew.Body
		}
	}

	listener, err := net.Listen("tcp", f.Listen)
	if err != nil {
		return E.Cause(err, "listen")
	}
	defer listener.Close()
	logger.Info("answering one probe on ", listener.Addr())

	tcpConn, err := listener.Accept()
	if err != nil {
		return E.Cause(err, "accept")
	}
	defer tcpConn.Close()

	conn, err := stream.NewFromConn(tcpConn.(syscall.Conn))
	if err != nil {
		return err
	}

	request := buf.New()
	defer request.Release()
	requestDone := make(chan error, 1)

	err = conn.OnRead(func(s *stream.Stream) bool {
		n, err := s.Read(request.FreeBytes(), false)
		if err != nil {
			if err == stream.ErrWouldBlock {
				return true
			}
			requestDone <- err
			return false
		}
		request.Truncate(request.Len() + n)
		if bytes.Contains(request.Bytes(), []byte("\r\n\r\n")) {
			requestDone <- nil
			return false
		}
		if request.IsFull() {
			requestDone <- E.New("request too large")
			return false
		}
		return true
	})
	if err != nil {
		conn.Close()
		return err
	}

	select {
	case err := <-requestDone:
		if err != nil {
			conn.Close()
			return E.Cause(err, "read request")
		}
	case <-time.After(15 * time.Second):
		conn.Close()
		return E.New("request timeout")
	}

	requestLine, _, _ := strings.Cut(string(request.Bytes()), "\r\n")
	logger.Info("request: ", requestLine)

	// the facade buffers, closing flushes the whole response with the FIN
	_, err = conn.Print("HTTP/1.0 %d %s\r\nContent-Type: text/plain\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		f.Status, http.StatusText(f.Status), len(f.Body), f.Body)
	if err != nil {
		conn.Close()
		return E.Cause(err, "write response")
	}
	return conn.Close()
}

type getFlags struct {
	Path    string
	Timeout time.Duration
}

func getCommand() *cobra.Command {
	f := new(getFlags)
	command := &cobra.Command{
		Use:   "get host:port",
		Short: "fetch a close-delimited response",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runGet(args[0], f); err != nil {
				logrus.Fatal(err)
			}
		},
	}
	command.Flags().StringVarP(&f.Path, "path", "p", "/", "Request path.")
	command.Flags().DurationVar(&f.Timeout, "timeout", 15*time.Second, "Response timeout.")
	return command
}

func runGet(target string, f *getFlags) error {
	host, _, err := net.SplitHostPort(target)
	if err != nil {
		return E.Cause(err, "parse target")
	}

	tcpConn, err := net.Dial("tcp", target)
	if err != nil {
		return E.Cause(err, "dial")
	}
	defer tcpConn.Close()

	conn, err := stream.NewFromConn(tcpConn.(syscall.Conn))
	if err != nil {
		return err
	}
	defer conn.Close()

	request := buf.As([]byte(F.ToString("GET ", f.Path, " HTTP/1.0\r\nHost: ", host, "\r\n\r\n")))
	for !request.IsEmpty() {
		err = conn.WriteBuffer(request, true)
		if err != nil {
			return E.Cause(err, "write request")
		}
	}

	done := make(chan error, 1)
	err = conn.OnRead(func(s *stream.Stream) bool {
		buffer := buf.New()
		defer buffer.Release()
		err := s.ReadBuffer(buffer, false)
		if err != nil {
			if err == stream.ErrWouldBlock {
				return true
			}
			done <- err
			return false
		}
		// a closed stdout pipe ends the fetch like a closed peer
		err = common.Error(buffer.WriteTo(os.Stdout))
		if err != nil {
			done <- err
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		if !E.IsClosed(err) {
			return E.Cause(err, "read response")
		}
	case <-time.After(f.Timeout):
		return E.New("response timeout")
	}
	return nil
}
