package main

import (
	"github.com/opencard/scardcore/pkg/driver"
	"github.com/opencard/scardcore/pkg/reader"
	"github.com/opencard/scardcore/pkg/session"
)

// connect opens a PC/SC context and resolves a session card at the
// configured slot (reader index) against the generic ISO 7816-4
// driver, the way a real command tree would plug in card-specific
// drivers ahead of it.
func connect() (*session.Card, error) {
	rd, err := reader.Open()
	if err != nil {
		return nil, err
	}

	ctx := &driver.Context{
		Drivers: []driver.Driver{driver.Generic{}},
		Debug:   debugLevel,
	}
	return session.Connect(ctx, rd, readerIndex)
}
