package adapter

import (
	"context"

	"condo/internal/governance/models"
	id "condo/pkg/domain"
)

func (a *Adapter) AddResident(ctx context.Context, caller, wallet id.Address, res id.ResidenceID) (*models.Resident, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	return impl.AddResident(ctx, caller, wallet, res)
}

func (a *Adapter) RemoveResident(ctx context.Context, caller, wallet id.Address) error {
	impl, err := a.impl()
	if err != nil {
		return err
	}
	return impl.RemoveResident(ctx, caller, wallet)
}

func (a *Adapter) SetCounselor(ctx context.Context, caller, wallet id.Address, counselor bool) (*models.Resident, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	return impl.SetCounselor(ctx, caller, wallet, counselor)
}

func (a *Adapter) GetResident(ctx context.Context, wallet id.Address) (*models.Resident, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	return impl.GetResident(ctx, wallet)
}

func (a *Adapter) GetResidents(ctx context.Context, page, pageSize int) (*models.ResidentPage, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	return impl.GetResidents(ctx, page, pageSize)
}

func (a *Adapter) IsResident(ctx context.Context, wallet id.Address) (bool, error) {
	impl, err := a.impl()
	if err != nil {
		return false, err
	}
	return impl.IsResident(ctx, wallet)
}

func (a *Adapter) GetManager(ctx context.Context) (id.Address, error) {
	impl, err := a.impl()
	if err != nil {
		return id.Address{}, err
	}
	return impl.GetManager(ctx)
}

// PayQuota forwards the payer and the attached value untouched.
func (a *Adapter) PayQuota(ctx context.Context, payer id.Address, res id.ResidenceID, value models.Amount) (*models.Payment, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	return impl.PayQuota(ctx, payer, res, value)
}

func (a *Adapter) IsDefaulter(ctx context.Context, res id.ResidenceID) (bool, error) {
	impl, err := a.impl()
	if err != nil {
		return false, err
	}
	return impl.IsDefaulter(ctx, res)
}

func (a *Adapter) MonthlyQuota(ctx context.Context) (models.Amount, error) {
	impl, err := a.impl()
	if err != nil {
		return 0, err
	}
	return impl.MonthlyQuota(ctx)
}

func (a *Adapter) GetPayments(ctx context.Context, res id.ResidenceID) ([]*models.Payment, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	return impl.GetPayments(ctx, res)
}

func (a *Adapter) AddTopic(ctx context.Context, caller id.Address, draft models.TopicDraft) (*models.Topic, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	topic, err := impl.AddTopic(ctx, caller, draft)
	if err != nil {
		return nil, err
	}
	a.topicChanged(ctx, topic)
	return topic, nil
}

func (a *Adapter) EditTopic(ctx context.Context, caller id.Address, title string, patch models.TopicPatch) (*models.Topic, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	topic, err := impl.EditTopic(ctx, caller, title, patch)
	if err != nil {
		return nil, err
	}
	a.topicChanged(ctx, topic)
	return topic, nil
}

// RemoveTopic publishes a TopicChanged without a status.
func (a *Adapter) RemoveTopic(ctx context.Context, caller id.Address, title string) error {
	impl, err := a.impl()
	if err != nil {
		return err
	}
	if err := impl.RemoveTopic(ctx, caller, title); err != nil {
		return err
	}
	a.notify(ctx, models.Notification{
		Type:  models.NotificationTopicChanged,
		Topic: title,
	})
	return nil
}

func (a *Adapter) GetTopic(ctx context.Context, title string) (*models.Topic, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	return impl.GetTopic(ctx, title)
}

func (a *Adapter) TopicExists(ctx context.Context, title string) (bool, error) {
	impl, err := a.impl()
	if err != nil {
		return false, err
	}
	return impl.TopicExists(ctx, title)
}

func (a *Adapter) GetTopics(ctx context.Context, page, pageSize int) (*models.TopicPage, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	return impl.GetTopics(ctx, page, pageSize)
}

func (a *Adapter) OpenVoting(ctx context.Context, caller id.Address, title string) (*models.Topic, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	topic, err := impl.OpenVoting(ctx, caller, title)
	if err != nil {
		return nil, err
	}
	a.topicChanged(ctx, topic)
	return topic, nil
}

func (a *Adapter) Vote(ctx context.Context, caller id.Address, title string, option models.Option) (*models.Vote, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	return impl.Vote(ctx, caller, title, option)
}

// CloseVoting also announces the manager or quota an approved topic installed.
func (a *Adapter) CloseVoting(ctx context.Context, caller id.Address, title string) (*models.Topic, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	topic, err := impl.CloseVoting(ctx, caller, title)
	if err != nil {
		return nil, err
	}
	a.topicChanged(ctx, topic)
	if topic.Status != models.StatusApproved {
		return topic, nil
	}
	switch topic.Category {
	case models.CategoryChangeManager:
		manager := topic.Responsible
		a.notify(ctx, models.Notification{
			Type:    models.NotificationManagerChanged,
			Topic:   topic.Title,
			Manager: &manager,
		})
	case models.CategoryChangeQuota:
		amount := topic.Amount
		a.notify(ctx, models.Notification{
			Type:   models.NotificationQuotaChanged,
			Topic:  topic.Title,
			Amount: &amount,
		})
	}
	return topic, nil
}

func (a *Adapter) NumberOfVotes(ctx context.Context, title string) (int, error) {
	impl, err := a.impl()
	if err != nil {
		return 0, err
	}
	return impl.NumberOfVotes(ctx, title)
}

func (a *Adapter) GetVotes(ctx context.Context, title string) ([]*models.Vote, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	return impl.GetVotes(ctx, title)
}

func (a *Adapter) Transfer(ctx context.Context, caller id.Address, title string, amount models.Amount) (*models.Transfer, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	transfer, err := impl.Transfer(ctx, caller, title, amount)
	if err != nil {
		return nil, err
	}
	to, value, spent := transfer.To, transfer.Amount, models.StatusSpent
	a.notify(ctx, models.Notification{
		Type:   models.NotificationTransferExecuted,
		Topic:  transfer.Topic,
		Amount: &value,
		To:     &to,
	})
	a.notify(ctx, models.Notification{
		Type:   models.NotificationTopicChanged,
		Topic:  transfer.Topic,
		Status: &spent,
	})
	return transfer, nil
}

func (a *Adapter) Balance(ctx context.Context) (models.Amount, error) {
	impl, err := a.impl()
	if err != nil {
		return 0, err
	}
	return impl.Balance(ctx)
}

func (a *Adapter) GetTransfers(ctx context.Context) ([]*models.Transfer, error) {
	impl, err := a.impl()
	if err != nil {
		return nil, err
	}
	return impl.GetTransfers(ctx)
}
