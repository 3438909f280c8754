package transport

import (
	"net"

	"github.com/backkem/ieee1905/pkg/cmdu"
)

// The Send* helpers compose a CMDU with the context's local address where
// the message kind carries one, send it to dst and return the assigned
// message id.

// SendTopologyDiscovery announces the local address and ifaceMAC.
func (c *Context) SendTopologyDiscovery(dst string, ifaceMAC net.HardwareAddr) (uint16, error) {
	m, err := cmdu.NewTopologyDiscovery(c.local, ifaceMAC)
	if err != nil {
		return 0, err
	}
	return c.sendComposed(m, dst)
}

// SendTopologyNotification reports a topology change on ifaceMAC.
func (c *Context) SendTopologyNotification(dst string, ifaceMAC net.HardwareAddr) (uint16, error) {
	m, err := cmdu.NewTopologyNotification(c.local, ifaceMAC)
	if err != nil {
		return 0, err
	}
	return c.sendComposed(m, dst)
}

// SendTopologyQuery asks dst for its topology.
func (c *Context) SendTopologyQuery(dst string) (uint16, error) {
	m, err := cmdu.NewTopologyQuery(c.local)
	if err != nil {
		return 0, err
	}
	return c.sendComposed(m, dst)
}

// SendTopologyResponse answers a query with one device information record.
func (c *Context) SendTopologyResponse(dst string, ifaceMAC net.HardwareAddr) (uint16, error) {
	m, err := cmdu.NewTopologyResponse(c.local, ifaceMAC)
	if err != nil {
		return 0, err
	}
	return c.sendComposed(m, dst)
}

// SendAPAutoconfigSearch searches for a registrar on behalf of radioID.
func (c *Context) SendAPAutoconfigSearch(dst string, radioID net.HardwareAddr) (uint16, error) {
	m, err := cmdu.NewAPAutoconfigSearch(radioID)
	if err != nil {
		return 0, err
	}
	return c.sendComposed(m, dst)
}

// SendAPAutoconfigResponse answers a search for radioID.
func (c *Context) SendAPAutoconfigResponse(dst string, radioID net.HardwareAddr) (uint16, error) {
	m, err := cmdu.NewAPAutoconfigResponse(radioID)
	if err != nil {
		return 0, err
	}
	return c.sendComposed(m, dst)
}

// SendAPAutoconfigWSC carries an opaque configuration payload to dst.
func (c *Context) SendAPAutoconfigWSC(dst string, payload []byte) (uint16, error) {
	m, err := cmdu.NewAPAutoconfigWSC(payload)
	if err != nil {
		return 0, err
	}
	return c.sendComposed(m, dst)
}

func (c *Context) sendComposed(m *cmdu.CMDU, dst string) (uint16, error) {
	if err := c.Send(m, dst); err != nil {
		return 0, err
	}
	return m.MessageID, nil
}
