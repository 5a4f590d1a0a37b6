// Package dhcp implements the single-lease DHCPv4 server of the access point.
//
// Every client is offered the same fixed address. The server identifies
// itself with the gateway address and advertises that address as the only
// router and name server, together with a captive portal URI (option 114).
//
//	srv, err := dhcp.NewServer(dhcp.DefaultConfig(gw), dhcp.NewSingleLeaser(lease), logger)
//	conn, err := dhcp.Listen(ctx, "wlan0")
//	err = srv.Serve(ctx, conn)
//
// Packets are decoded and encoded with gopacket's DHCPv4 layer.
package dhcp
