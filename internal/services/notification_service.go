package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/smartwaste/bin-registry/shared/go-utils"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const registrationEmailHTML = `<!DOCTYPE html>
<html>
  <body style="font-family:Arial,sans-serif;color:#111827">
    <h2>Your bin is registered</h2>
    <p>Hello %s,</p>
    <p>Bin <strong>%s</strong> (%s) at %s has been added to the %s registry.</p>
    <p>Next collection: <strong>%s</strong></p>
    <p>Your printable QR sticker is attached. Fix it to the lid where collectors can scan it.</p>
  </body>
</html>`

type NotificationConfig struct {
	FromEmail       string
	FromPhone       string
	SendgridSandbox bool
	Timeout         time.Duration
}

// NotificationService emails the resident their sticker and sends an SMS
// confirmation. Either client may be nil; that channel is then skipped.
type NotificationService struct {
	cfg      NotificationConfig
	stickers *StickerService
	sg       *sendgrid.Client
	tw       *twilio.RestClient
}

func NewNotificationService(
	cfg NotificationConfig,
	stickers *StickerService,
	sg *sendgrid.Client,
	tw *twilio.RestClient,
) *NotificationService {
	return &NotificationService{cfg: cfg, stickers: stickers, sg: sg, tw: tw}
}

func (n *NotificationService) NotifyRegistered(ctx context.Context, bin *models.Bin) {
	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}
	log := utils.Logger.WithField("bin_id", bin.BinID)

	// ---------- SendGrid Email ----------
	if n.sg != nil && bin.Contact.Email != "" {
		var attachment *StickerArtifact
		if n.stickers != nil {
			a, err := n.stickers.Render(ctx, bin, StickerRequest{})
			if err != nil {
				log.WithError(err).Warn("[Notify] sticker render failed, sending email without attachment")
			} else {
				attachment = a
			}
		}
		msg := buildRegistrationEmail(n.cfg, bin, attachment)
		resp, err := n.sg.SendWithContext(ctx, msg)
		switch {
		case err != nil:
			notificationsTotal.WithLabelValues("email", "error").Inc()
			log.WithError(err).Warn("[Notify] registration email failed")
		case resp.StatusCode >= 400:
			notificationsTotal.WithLabelValues("email", "error").Inc()
			log.WithField("status", resp.StatusCode).Warnf("[Notify] registration email rejected: %s", resp.Body)
		default:
			notificationsTotal.WithLabelValues("email", "sent").Inc()
			log.Info("[Notify] registration email sent")
		}
	} else {
		log.Debug("[Notify] SendGrid client is nil or no email, skipping email")
	}

	// ---------- Twilio SMS ----------
	if n.tw != nil && bin.Contact.Phone != "" {
		if _, err := n.tw.Api.CreateMessage(buildRegistrationSMS(n.cfg, bin)); err != nil {
			notificationsTotal.WithLabelValues("sms", "error").Inc()
			log.WithError(err).Warn("[Notify] registration SMS failed")
		} else {
			notificationsTotal.WithLabelValues("sms", "sent").Inc()
		}
	} else {
		log.Debug("[Notify] Twilio client is nil or no phone, skipping SMS")
	}
}

func nextCollectionText(bin *models.Bin) string {
	if bin.NextCollection == nil {
		return "to be scheduled"
	}
	return bin.NextCollection.Format("Mon, 02 Jan 2006")
}

func buildRegistrationEmail(cfg NotificationConfig, bin *models.Bin, sticker *StickerArtifact) *mail.SGMailV3 {
	subject := fmt.Sprintf("Bin %s registered", bin.BinID)
	plain := fmt.Sprintf(
		"Hello %s,\n\nBin %s (%s) at %s has been added to the %s registry.\nNext collection: %s\n",
		bin.ResidentName, bin.BinID, bin.BinType, bin.Location, utils.OrganizationName, nextCollectionText(bin),
	)
	html := fmt.Sprintf(
		registrationEmailHTML,
		bin.ResidentName, bin.BinID, bin.BinType, bin.Location, utils.OrganizationName, nextCollectionText(bin),
	)

	from := mail.NewEmail(utils.OrganizationName, cfg.FromEmail)
	to := mail.NewEmail(bin.ResidentName, bin.Contact.Email)
	msg := mail.NewSingleEmail(from, subject, to, plain, html)
	msg.TrackingSettings = &mail.TrackingSettings{
		ClickTracking: &mail.ClickTrackingSetting{
			Enable: utils.Ptr(false),
		},
	}
	if sticker != nil {
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(sticker.Data))
		att.SetType(sticker.ContentType)
		att.SetFilename(sticker.Filename)
		att.SetDisposition("attachment")
		msg.AddAttachment(att)
	}
	if cfg.SendgridSandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}
	return msg
}

func buildRegistrationSMS(cfg NotificationConfig, bin *models.Bin) *twilioApi.CreateMessageParams {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(bin.Contact.Phone)
	params.SetFrom(cfg.FromPhone)
	params.SetBody(fmt.Sprintf(
		"%s: bin %s is registered. Next collection: %s.",
		utils.OrganizationName, bin.BinID, nextCollectionText(bin),
	))
	return params
}
