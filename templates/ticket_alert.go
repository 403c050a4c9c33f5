package templates

import (
	"fmt"
	"html/template"
	"strings"

	"railwatch-service/internal/domain/entity"
)

// alertShell is the common mail frame; only the headline and the list
// items differ between direct and transfer alerts.
var alertShell = template.Must(template.New("alertShell").Parse(`
    <div style="background-color: #FBFBF6; padding: 40px; font-family: 'STSong', 'SimSun', serif; color: #293C55;">
        <div style="max-width: 600px; margin: 0 auto; background: #ffffff; border: 1px solid #e0e0e0; border-radius: 8px; box-shadow: 0 4px 15px rgba(0,0,0,0.05); overflow: hidden;">
            <div style="background-color: #293C55; color: #FBFBF6; padding: 25px; text-align: center;">
                <h2 style="margin: 0; font-size: 24px; letter-spacing: 4px; font-weight: normal;">12306 云监控提醒</h2>
            </div>
            <div style="padding: 35px; line-height: 1.8;">
                <p style="font-size: 18px; color: #D93D3B; font-weight: bold; border-bottom: 2px solid #F2A626; padding-bottom: 10px; display: inline-block; margin-top: 0;">
                    {{.TitleText}}
                </p>
                <p style="margin-top: 20px; font-family: 'Microsoft YaHei', sans-serif;">尊敬的用户，为您监控到以下车次已有余票，请尽快处理：</p>
                <div style="background-color: #F8F9FA; border-left: 4px solid #613D31; padding: 20px; margin: 25px 0; background-image: linear-gradient(to right, #f8f9fa, #ffffff);">
                    <ul style="margin: 0; padding-left: 20px; list-style-type: none; font-family: 'Microsoft YaHei', sans-serif; font-size: 16px;">
                        {{range .Items}}{{.}}{{end}}
                    </ul>
                </div>
                <div style="font-size:13px; color:#999; margin-top:10px; background:#fff3cd; padding:10px; border-radius:4px;">
                    ⚠️ 为了保护服务器IP不被封禁，系统采用低频轮询策略。请勿手动频繁刷新，以免影响监控。
                </div>
                <div style="text-align: center; margin-top: 35px;">
                    <a href="https://kyfw.12306.cn/" style="background-color: #D93D3B; color: #ffffff; padding: 12px 30px; text-decoration: none; border-radius: 4px; font-weight: bold; display: inline-block; box-shadow: 0 2px 5px rgba(217,61,59,0.3);">
                        立即前往 12306 购票
                    </a>
                </div>
            </div>
            <div style="background-color: #FBFBF6; padding: 25px; text-align: right; border-top: 1px dotted #ccc; color: #666; font-size: 14px;">
                <p style="margin: 0; font-style: italic;">山水有相逢，愿您旅途愉快。</p>
            </div>
        </div>
    </div>
`))

var directItem = template.Must(template.New("directItem").Parse(
	`<li style='margin-bottom:8px;'><b>{{.Code}}</b> {{.DepartTime}}-{{.ArriveTime}} ({{.Seats}})</li>`))

var transferItem = template.Must(template.New("transferItem").Parse(
	`<li style='margin-bottom:15px; border-bottom:1px dashed #eee; padding-bottom:5px;'>` +
		`<b>{{.FirstCode}} + {{.SecondCode}}</b><br>` +
		`<span style='color:#666;font-size:0.9em'>{{.From}}({{.Depart}}) → {{.Via}}({{.Arrive}}) [停{{.Layover}}分] → {{.To}}({{.Final}})</span><br>` +
		`余票: {{.FirstSeats}} / {{.SecondSeats}}</li>`))

type shellData struct {
	TitleText string
	Items     []template.HTML
}

// DirectSubject builds the subject line for a direct-route alert
func DirectSubject(date, from, to string) string {
	return fmt.Sprintf("[有票] %s %s->%s", date, from, to)
}

// TransferSubject builds the subject line for a transfer-route alert
func TransferSubject(date, from, via, to string) string {
	return fmt.Sprintf("[中转方案] %s %s->%s->%s", date, from, via, to)
}

// RenderDirectAlert renders the alert body for matched direct tickets
func RenderDirectAlert(tickets []entity.FoundTicket) (string, error) {
	items := make([]template.HTML, 0, len(tickets))
	for _, t := range tickets {
		var b strings.Builder
		err := directItem.Execute(&b, map[string]string{
			"Code":       t.Code,
			"DepartTime": t.DepartTime,
			"ArriveTime": t.ArriveTime,
			"Seats":      strings.Join(t.Seats, " "),
		})
		if err != nil {
			return "", err
		}
		items = append(items, template.HTML(b.String()))
	}
	return renderShell("发现直达余票", items)
}

// RenderTransferAlert renders the alert body for qualifying transfer plans
func RenderTransferAlert(key entity.RouteKey, plans []entity.TransferPlan) (string, error) {
	items := make([]template.HTML, 0, len(plans))
	for _, p := range plans {
		var b strings.Builder
		err := transferItem.Execute(&b, map[string]interface{}{
			"FirstCode":   p.First.Code,
			"SecondCode":  p.Second.Code,
			"From":        key.From,
			"Via":         key.Via,
			"To":          key.To,
			"Depart":      p.First.DepartTime,
			"Arrive":      p.First.ArriveTime,
			"Final":       p.Second.ArriveTime,
			"Layover":     p.LayoverMinutes,
			"FirstSeats":  strings.Join(p.First.Seats, ","),
			"SecondSeats": strings.Join(p.Second.Seats, ","),
		})
		if err != nil {
			return "", err
		}
		items = append(items, template.HTML(b.String()))
	}
	return renderShell("中转方案推荐", items)
}

func renderShell(title string, items []template.HTML) (string, error) {
	var b strings.Builder
	if err := alertShell.Execute(&b, shellData{TitleText: title, Items: items}); err != nil {
		return "", err
	}
	return b.String(), nil
}
