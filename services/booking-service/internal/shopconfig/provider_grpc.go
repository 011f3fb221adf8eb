//go:build protogen

package shopconfig

import (
	"context"
	"time"

	"github.com/elitebarber/bookingd/libs/grpcx"
	shopv1 "github.com/elitebarber/bookingd/protos/gen/shop/v1"
	"github.com/elitebarber/bookingd/services/booking-service/internal/availability"
)

// Provider resolves the shop's weekly schedule from a remote config
// service. A nil Provider means the local business_hours table is the
// only source.
type Provider interface {
	GetWeekSchedule(ctx context.Context, shopID string) (availability.WeekSchedule, error)
}

type grpcProvider struct {
	client shopv1.ShopServiceClient
}

func NewProvider(addr string) (Provider, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcProvider{client: shopv1.NewShopServiceClient(conn)}, nil
}

func (p *grpcProvider) GetWeekSchedule(ctx context.Context, shopID string) (availability.WeekSchedule, error) {
	resp, err := p.client.GetWeekSchedule(ctx, &shopv1.WeekScheduleRequest{ShopId: shopID})
	if err != nil {
		return nil, err
	}
	sched := availability.WeekSchedule{}
	for weekday, day := range resp.GetDays() {
		sched[weekday] = availability.DayHours{
			Enabled:               day.GetEnabled(),
			Open:                  day.GetOpen(),
			Close:                 day.GetClose(),
			OvertimeBufferMinutes: int(day.GetOvertimeBufferMinutes()),
		}
	}
	return sched, nil
}
