// Package grpcserver exposes the engine service over gRPC.
package grpcserver

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketsim/api/wire"
	"marketsim/domain/book"
	"marketsim/domain/engine"
	"marketsim/service"
)

// Server adapts a service.EngineService to the wire.EngineServer
// contract.
type Server struct {
	svc *service.EngineService
	log *zap.Logger
}

func New(svc *service.EngineService, log *zap.Logger) *Server {
	return &Server{svc: svc, log: log}
}

func (s *Server) SubmitOrder(ctx context.Context, req *wire.SubmitOrderRequest) (*wire.SubmitOrderResponse, error) {
	r := engine.Request{
		Side:  book.Side(req.Side),
		Kind:  engine.Kind(req.Kind),
		Price: req.Price,
		Qty:   req.Qty,
	}
	trades, err := s.svc.Submit(r)
	if err != nil {
		if errors.Is(err, book.ErrInvalidOrder) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.log.Error("submit failed",
			zap.String("side", r.Side.String()),
			zap.String("kind", r.Kind.String()),
			zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}

	resp := &wire.SubmitOrderResponse{Trades: make([]*wire.Trade, 0, len(trades))}
	for _, t := range trades {
		resp.Trades = append(resp.Trades, &wire.Trade{
			Id:      t.ID.String(),
			Price:   t.Price,
			Qty:     t.Qty,
			BuySeq:  t.BuySeq,
			SellSeq: t.SellSeq,
			Taker:   uint32(t.Taker),
			TimeNs:  t.Time.UnixNano(),
		})
	}
	return resp, nil
}

func (s *Server) GetQuote(ctx context.Context, _ *wire.QuoteRequest) (*wire.QuoteResponse, error) {
	q := s.svc.BestQuote()
	return &wire.QuoteResponse{
		HasBid: q.HasBid,
		Bid:    q.Bid,
		HasAsk: q.HasAsk,
		Ask:    q.Ask,
		Last:   s.svc.LastPrice(),
	}, nil
}

func (s *Server) GetDepth(ctx context.Context, req *wire.DepthRequest) (*wire.DepthResponse, error) {
	d := s.svc.Depth(int(req.MaxLevels))
	resp := &wire.DepthResponse{
		Bids: make([]*wire.Level, 0, len(d.Bids)),
		Asks: make([]*wire.Level, 0, len(d.Asks)),
	}
	for _, l := range d.Bids {
		resp.Bids = append(resp.Bids, &wire.Level{Price: l.Price, Qty: l.Qty, Orders: uint32(l.Orders)})
	}
	for _, l := range d.Asks {
		resp.Asks = append(resp.Asks, &wire.Level{Price: l.Price, Qty: l.Qty, Orders: uint32(l.Orders)})
	}
	return resp, nil
}
