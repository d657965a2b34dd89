package reviews

import (
	"time"

	"wishyoulucky/internal/pkg/clock"
)

type Review struct {
	ID       int    `json:"id"`
	Customer string `json:"customer"`
	Product  string `json:"product"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
	Date     string `json:"date"`
}

// Service hands out the review list in today's order.
type Service struct {
	reviews []Review
	clock   clock.Clock
	loc     *time.Location
}

func NewService(items []Review, c clock.Clock, loc *time.Location) *Service {
	if items == nil {
		items = Default()
	}
	return &Service{reviews: items, clock: c, loc: loc}
}

// Today returns up to limit reviews (all when limit <= 0) in the order of the current day.
func (s *Service) Today(limit int) []Review {
	out := Daily(s.reviews, s.clock, s.loc)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Default is the testimonial set shown on the storefront.
func Default() []Review {
	return []Review{
		{1, "คุณแพร", "Lucky Cat Mini Figure", 5, "ของน่ารักมาก แพ็คมาดีสุดๆ ส่งไวค่ะ", "2024-11-02"},
		{2, "คุณต้น", "Chiikawa Plush", 5, "ตุ๊กตานุ่มมาก ตรงปก จะกลับมาซื้ออีกครับ", "2024-11-15"},
		{3, "คุณมิว", "Sanrio Keychain Set", 4, "สีสวยตรงรูป รอพรีนิดหน่อยแต่คุ้มค่า", "2024-12-01"},
		{4, "คุณบีม", "Pop Mart Big Statue", 5, "กล่องไม่บุบเลย แอดมินตอบไวมาก", "2024-12-09"},
		{5, "คุณนุ่น", "Standee Collection", 5, "สแตนดี้คมชัด ห่อกันกระแทกอย่างดี", "2025-01-04"},
		{6, "คุณโอ๊ต", "Medium Figure Dragon", 4, "รายละเอียดงานดี ส่งตรงวันที่แจ้ง", "2025-01-20"},
		{7, "คุณเฟิร์น", "Kuromi Hoodie", 5, "ผ้าดี ใส่สบาย ไซซ์ตรงตามตาราง", "2025-02-11"},
		{8, "คุณแบงค์", "Mystery Box Mini Figure", 5, "สุ่มได้ตัวที่อยากได้พอดี ดีใจมาก", "2025-02-27"},
	}
}
