package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"broom/internal/daemon"
	"broom/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. onStop is
// invoked after a Stop request has been honored, letting the daemon process
// shut itself down.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, onStop func(), logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, onStop: onStop, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Broom", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"),
				)
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun broom stop"),
		)
	}
}

type service struct {
	daemon *daemon.Daemon
	onStop func()
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.State = string(status.Janitor.State)
	resp.VendorPrefix = status.Janitor.VendorPrefix
	resp.Pattern = status.Janitor.Pattern
	resp.GracePeriodSecs = int(status.Janitor.GracePeriod.Seconds())
	resp.CountdownSecs = int(status.Janitor.CountdownRemaining.Seconds())
	resp.LockPath = status.LockFilePath
	resp.HistoryDBPath = status.HistoryDBPath
	if status.Janitor.LastSweep != nil {
		record := fromSweep(*status.Janitor.LastSweep)
		resp.LastSweep = &record
	}
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC", logging.String(logging.FieldEventType, "daemon_stop"))
	if s.onStop != nil {
		s.onStop()
	}
	return nil
}

func (s *service) Sweep(_ SweepRequest, resp *SweepResponse) error {
	s.logger.Debug("manual sweep requested")
	sweep, err := s.daemon.Sweep(s.ctx)
	if err != nil {
		return err
	}
	resp.Sweep = fromSweep(sweep)
	s.logger.Info("manual sweep completed",
		logging.String(logging.FieldEventType, "manual_sweep"),
		logging.String("decision", sweep.Decision),
	)
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	sweeps, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Sweeps = make([]SweepRecord, 0, len(sweeps))
	for _, sweep := range sweeps {
		resp.Sweeps = append(resp.Sweeps, fromSweep(sweep))
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
