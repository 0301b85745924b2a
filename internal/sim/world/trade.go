package world

import (
	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/tuning"
)

// Duplicate C_TRADE req_ids inside the window replay the original result
// instead of re-running the trade.
const tradeSeenTTLTicks = 600

type tradeKey struct {
	PlayerID string
	ReqID    string
}

type tradeSeenEntry struct {
	Result      protocol.TradeResultMsg
	ExpiresTick uint64
}

func sietchCenter(tun tuning.Tuning) geo.Vector3 {
	return geo.Vector3{X: tun.Sietch.X, Z: tun.Sietch.Z}
}

func (w *World) applyTrade(p *Player, msg protocol.TradeMsg, nowTick uint64) {
	if msg.ReqID != "" {
		if ent, ok := w.tradeSeen[tradeKey{p.ID, msg.ReqID}]; ok && nowTick < ent.ExpiresTick {
			p.trades = append(p.trades, ent.Result)
			return
		}
	}

	res := protocol.TradeResultMsg{
		Type:            protocol.TypeTradeResult,
		ProtocolVersion: protocol.Version,
		ReqID:           msg.ReqID,
	}

	var err error
	var price int
	if !w.sietch.CanTrade(p.Pos) {
		err = protocol.Errf(protocol.ErrNotInSafeZone, "trading works only inside the sietch")
	} else {
		switch msg.Op {
		case protocol.TradeOpBuy:
			if price, err = w.sietch.BuyPrice(msg.ItemID); err == nil {
				var spice int
				if spice, err = w.sietch.Buy(msg.ItemID, p.Res.Spice, &p.Res.Inventory); err == nil {
					p.Res.Spice = spice
				}
			}
		case protocol.TradeOpSell:
			if price, err = w.sietch.SellPrice(msg.ItemID); err == nil {
				var spice int
				if spice, err = w.sietch.Sell(msg.ItemID, p.Res.Spice, &p.Res.Inventory); err == nil {
					p.Res.Spice = spice
				}
			}
		default:
			err = protocol.Errf(protocol.ErrBadRequest, "unknown trade op %q", msg.Op)
		}
	}
	if err != nil {
		res.Code = protocol.CodeOf(err)
		res.Message = protocol.ReasonOf(err)
	} else {
		res.OK = true
		res.ItemID = msg.ItemID
		res.Price = price
		w.audit("TRADE", p.ID, p.Pos, map[string]any{
			"op":      msg.Op,
			"item_id": msg.ItemID,
			"price":   price,
		})
	}
	res.Spice = p.Res.Spice

	p.trades = append(p.trades, res)
	if msg.ReqID != "" {
		w.rememberTrade(tradeKey{p.ID, msg.ReqID}, res, nowTick)
	}
}

func (w *World) rememberTrade(k tradeKey, res protocol.TradeResultMsg, nowTick uint64) {
	// Opportunistic sweep keeps the cache bounded without a timer.
	for key, ent := range w.tradeSeen {
		if nowTick >= ent.ExpiresTick {
			delete(w.tradeSeen, key)
		}
	}
	w.tradeSeen[k] = tradeSeenEntry{Result: res, ExpiresTick: nowTick + tradeSeenTTLTicks}
}
