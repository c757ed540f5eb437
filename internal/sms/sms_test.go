package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeAPI struct {
	params *openapi.CreateMessageParams
	sid    string
	err    error
}

func (f *fakeAPI) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	status := "queued"
	return &openapi.ApiV2010Message{Sid: &f.sid, Status: &status}, nil
}

func TestTwilioSender_Send(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{sid: "SM123"}
	s := newTwilio(api, "+15550001111", nil)

	receipt, err := s.Send(context.Background(), " +919812345670 ", "hello")
	require.NoError(t, err)

	assert.Equal(t, "SM123", receipt.ProviderID)
	assert.Equal(t, "queued", receipt.Status)
	require.NotNil(t, api.params)
	assert.Equal(t, "+919812345670", *api.params.To)
	assert.Equal(t, "+15550001111", *api.params.From)
	assert.Equal(t, "hello", *api.params.Body)
}

func TestTwilioSender_SendErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		to      string
		apiErr  error
		wantErr error
	}{
		{name: "empty recipient", to: "  ", wantErr: ErrEmptyRecipient},
		{name: "provider failure", to: "+919812345670", apiErr: errors.New("unverified number")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			api := &fakeAPI{err: tc.apiErr}
			s := newTwilio(api, "+15550001111", nil)

			_, err := s.Send(context.Background(), tc.to, "hello")
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, api.params)
			} else {
				assert.ErrorIs(t, err, tc.apiErr)
			}
		})
	}
}

func TestLogSender_Send(t *testing.T) {
	t.Parallel()

	s := NewLog(nil)

	receipt, err := s.Send(context.Background(), "+919812345670", "hello")
	require.NoError(t, err)
	assert.Contains(t, receipt.ProviderID, "log-")

	_, err = s.Send(context.Background(), "", "hello")
	assert.ErrorIs(t, err, ErrEmptyRecipient)
}
