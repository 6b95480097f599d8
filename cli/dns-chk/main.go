package main

import (
	"encoding/binary"
	"encoding/json"
	"net"
	"net/netip"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/strombase/strom"
	"github.com/strombase/strom/common"
	"github.com/strombase/strom/common/buf"
	E "github.com/strombase/strom/common/exceptions"
	_ "github.com/strombase/strom/common/log"
	"github.com/strombase/strom/common/stream"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/net/dns/dnsmessage"
)

type flags struct {
	Server     string `json:"server"`
	Domain     string `json:"domain"`
	ConfigFile string
}

func main() {
	f := new(flags)

	command := &cobra.Command{
		Use:     "dns-chk",
		Short:   "resolve a name over DNS/TCP through an fd stream",
		Version: strom.VersionStr,
		Run: func(cmd *cobra.Command, args []string) {
			run(cmd, f)
		},
	}

	command.Flags().StringVarP(&f.Server, "server", "s", "1.0.0.1:53", "DNS server to query.")
	command.Flags().StringVarP(&f.Domain, "domain", "d", "google.com.", "Name to resolve.")
	command.Flags().StringVarP(&f.ConfigFile, "config", "c", "", "Use a configuration file.")

	if err := command.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func run(cmd *cobra.Command, f *flags) {
	if f.ConfigFile != "" {
		configFile, err := os.ReadFile(f.ConfigFile)
		if err != nil {
			logrus.Fatal(E.Cause(err, "read config file"))
		}
		flagsNew := new(flags)
		err = json.Unmarshal(configFile, flagsNew)
		if err != nil {
			logrus.Fatal(E.Cause(err, "decode config file"))
		}
		if flagsNew.Server != "" && !cmd.Flags().Changed("server") {
			f.Server = flagsNew.Server
		}
		if flagsNew.Domain != "" && !cmd.Flags().Changed("domain") {
			f.Domain = flagsNew.Domain
		}
	}
	if err := query(f); err != nil {
		logrus.Fatal(err)
	}
}

func query(f *flags) error {
	domain := f.Domain
	if !strings.HasSuffix(domain, ".") {
		domain += "."
	}
	name, err := dnsmessage.NewName(domain)
	if err != nil {
		return E.Cause(err, "parse domain")
	}

	tcpConn, err := net.Dial("tcp", f.Server)
	if err != nil {
		return E.Cause(err, "dial server")
	}
	defer tcpConn.Close()

	conn, err := stream.NewFromConn(tcpConn.(syscall.Conn))
	if err != nil {
		return err
	}
	defer conn.Close()

	message := new(dnsmessage.Message)
	message.Header.ID = 1
	message.Header.RecursionDesired = true
	message.Questions = append(message.Questions, dnsmessage.Question{
		Name:  name,
		Type:  dnsmessage.TypeA,
		Class: dnsmessage.ClassINET,
	})
	packet, err := message.Pack()
	common.Must(err)

	request := buf.NewSize(2 + len(packet))
	defer request.Release()
	binary.BigEndian.PutUint16(request.Extend(2), uint16(len(packet)))
	common.Must1(request.Write(packet))
	for !request.IsEmpty() {
		err = conn.WriteBuffer(request, true)
		if err != nil {
			return E.Cause(err, "write query")
		}
	}

	response := buf.NewSize(2 + 65535)
	defer response.Release()
	answers := make(chan *dnsmessage.Message, 1)
	failures := make(chan error, 1)

	err = conn.OnRead(func(s *stream.Stream) bool {
		n, err := s.Read(response.FreeBytes(), false)
		if err != nil {
			if err == stream.ErrWouldBlock {
				return true
			}
			failures <- err
			return false
		}
		response.Truncate(response.Len() + n)
		if response.Len() < 2 {
			return true
		}
		packetLen := int(binary.BigEndian.Uint16(response.To(2)))
		if response.Len() < 2+packetLen {
			return true
		}
		reply := new(dnsmessage.Message)
		err = reply.Unpack(response.Bytes()[2 : 2+packetLen])
		if err != nil {
			failures <- err
			return false
		}
		answers <- reply
		return false
	})
	if err != nil {
		return err
	}

	select {
	case reply := <-answers:
		for _, answer := range reply.Answers {
			switch resource := answer.Body.(type) {
			case *dnsmessage.AResource:
				logrus.Info("got answer: ", netip.AddrFrom4(resource.A))
			case *dnsmessage.AAAAResource:
				logrus.Info("got answer: ", netip.AddrFrom16(resource.AAAA))
			default:
				logrus.Info("got answer: ", answer.Header.Type)
			}
		}
		if len(reply.Answers) == 0 {
			logrus.Warn("no answers in response")
		}
	case err := <-failures:
		return E.Cause(err, "read response")
	case <-time.After(5 * time.Second):
		return E.New("query timeout")
	}
	return nil
}
