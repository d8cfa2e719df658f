package notify

import (
	"fmt"
	"log"
)

// Notifier renders and sends the two missed-lesson messages. Email is the
// primary channel; SMS goes out as well when the contact has a mobile number
// on file. A missing channel is not an error for the other one.
type Notifier struct {
	mailer Mailer
	texter Texter
}

func NewNotifier(mailer Mailer, texter Texter) *Notifier {
	return &Notifier{mailer: mailer, texter: texter}
}

// NotifyStudentMissed tells a student their lesson was marked missed.
func (n *Notifier) NotifyStudentMissed(name, email, mobile, lessonTitle string, daysOverdue int) error {
	subject := "You missed your lesson: " + lessonTitle
	body := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Lesson Missed</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #dc2626;">Lesson Marked as Missed</h2>
        <p>Dear ` + name + `,</p>
        <p>You enrolled in <strong>` + lessonTitle + `</strong> ` + fmt.Sprintf("%d", daysOverdue) + ` days ago but never started it, so it has been marked as missed.</p>
        <p>If you would like another chance, open the lesson and request a redo from your instructor.</p>
        <hr style="border: 1px solid #eee; margin: 20px 0;">
        <p style="font-size: 12px; color: #666;">This is an automated notification.</p>
    </div>
</body>
</html>`

	if err := n.mailer.Send(name, email, subject, body); err != nil {
		return fmt.Errorf("student missed email: %w", err)
	}
	if mobile != "" {
		sms := fmt.Sprintf("Your lesson %q was marked missed after %d days without progress. Request a redo to try again.", lessonTitle, daysOverdue)
		if err := n.texter.Send(mobile, sms); err != nil {
			// Email already went out; don't fail the task over the SMS leg.
			log.Printf("[NOTIFY] SMS to %s failed: %v", mobile, err)
		}
	}
	return nil
}

// NotifyInstructorMissed tells an instructor one of their students missed a lesson.
func (n *Notifier) NotifyInstructorMissed(name, email, mobile, studentName, studentEmail, lessonTitle string, daysOverdue int) error {
	subject := "Student missed your lesson: " + lessonTitle
	body := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Student Missed Lesson</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">Student Missed a Lesson</h2>
        <p>Dear ` + name + `,</p>
        <p>Your student <strong>` + studentName + `</strong> (` + studentEmail + `) enrolled in <strong>` + lessonTitle + `</strong> ` + fmt.Sprintf("%d", daysOverdue) + ` days ago and never started it. The enrollment has been marked as missed.</p>
        <p>The student can request a redo, which you may grant from your dashboard.</p>
        <hr style="border: 1px solid #eee; margin: 20px 0;">
        <p style="font-size: 12px; color: #666;">This is an automated notification.</p>
    </div>
</body>
</html>`

	if err := n.mailer.Send(name, email, subject, body); err != nil {
		return fmt.Errorf("instructor missed email: %w", err)
	}
	if mobile != "" {
		sms := fmt.Sprintf("%s missed your lesson %q (%d days without progress).", studentName, lessonTitle, daysOverdue)
		if err := n.texter.Send(mobile, sms); err != nil {
			log.Printf("[NOTIFY] SMS to %s failed: %v", mobile, err)
		}
	}
	return nil
}
