package agent

import (
	"context"
	"time"

	"gridflow/internal/broker"
	"gridflow/internal/dao"
	"gridflow/internal/model"
	"gridflow/pkg/logger"
	"gridflow/pkg/recorder"
)

// 在券商会话外面套一层订单流水记录。
// 流水只作审计用途，写入失败不影响下单结果
type journalSession struct {
	broker.Session
	instanceID string
	journal    *dao.JournalDao
	rec        recorder.Recorder
}

func newJournalSession(s broker.Session, instanceID string,
	journal *dao.JournalDao, rec recorder.Recorder) broker.Session {
	return &journalSession{
		Session:    s,
		instanceID: instanceID,
		journal:    journal,
		rec:        rec,
	}
}

func (j *journalSession) PlaceOrder(ctx context.Context, pair string, side model.OrderSide,
	units int64, typ model.OrderType, opts model.OrderOptions) (*model.OrderResult, error) {

	result, err := j.Session.PlaceOrder(ctx, pair, side, units, typ, opts)

	rec := &model.OrderJournalRecord{
		InstanceID: j.instanceID,
		Pair:       pair,
		Side:       side,
		OrderType:  typ,
		Units:      units,
		CreatedAt:  time.Now(),
	}
	if opts.Price != nil {
		rec.Price = opts.Price.String()
	}
	switch {
	case err != nil:
		rec.Outcome = "rejected"
	case result.OrderOpened != nil:
		rec.Outcome = "opened"
		rec.OrderID = result.OrderOpened.InternalID
	default:
		rec.Outcome = "filled"
		if result.TradeOpened != nil {
			rec.OrderID = result.TradeOpened.InternalID
		}
	}

	if j.journal != nil {
		if jerr := j.journal.Insert(ctx, rec); jerr != nil {
			logger.Errorf("order journal insert failed: %v", jerr)
		}
	}
	if j.rec != nil {
		if rerr := j.rec.Record(rec); rerr != nil {
			logger.Errorf("order recorder failed: %v", rerr)
		}
	}
	return result, err
}
