package events

import (
	"context"
	"fmt"
	"github.com/godbus/dbus/v5"
)

//D-Bus coordinates of the LogEvent signal
const (
	BusName      = "org.eggsnake.EggSnake"
	ObjectPath   = dbus.ObjectPath("/org/eggsnake/EggSnake")
	BusInterface = "org.eggsnake.EggSnake0"
)

//logger is the exported object, it has no methods, only signals
type logger struct{}

//DBusTransport emits signals on the session bus
type DBusTransport struct {
	conn *dbus.Conn
}

//NewDBusTransport connects to the session bus and claims BusName
func NewDBusTransport() (*DBusTransport, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("request name %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return nil, fmt.Errorf("name %s already taken", BusName)
	}
	if err := conn.Export(logger{}, ObjectPath, BusInterface); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("export %s: %w", ObjectPath, err)
	}
	return &DBusTransport{conn: conn}, nil
}

func (t *DBusTransport) Deliver(signal string, payload string) error {
	return t.conn.Emit(ObjectPath, BusInterface+"."+signal, payload)
}

func (t *DBusTransport) Close() error {
	return t.conn.Close()
}

//DBusListener receives LogEvent payloads from the session bus
type DBusListener struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
}

func NewDBusListener() (*DBusListener, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(ObjectPath),
		dbus.WithMatchInterface(BusInterface),
		dbus.WithMatchMember(LogEvent),
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("match %s: %w", LogEvent, err)
	}
	l := &DBusListener{conn: conn, signals: make(chan *dbus.Signal, DefCapacity)}
	conn.Signal(l.signals)
	return l, nil
}

//Listen pumps the payloads into the returned channel until ctx is done
func (l *DBusListener) Listen(ctx context.Context) <-chan string {
	out := make(chan string, DefCapacity)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-l.signals:
				if !ok {
					return
				}
				payload, ok := signalPayload(sig)
				if !ok {
					continue
				}
				select {
				case out <- payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (l *DBusListener) Close() error {
	l.conn.RemoveSignal(l.signals)
	return l.conn.Close()
}

func signalPayload(sig *dbus.Signal) (string, bool) {
	if sig == nil || sig.Name != BusInterface+"."+LogEvent || len(sig.Body) == 0 {
		return "", false
	}
	s, ok := sig.Body[0].(string)
	return s, ok
}
