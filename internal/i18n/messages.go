// ABOUTME: Translation table keyed by message id
// ABOUTME: Each entry holds English, Simplified and Traditional Chinese text

package i18n

// messages maps a key to its text in supported order: en, zh-CN, zh-TW.
var messages = map[string][3]string{
	// Console
	"admin.title":            {"Admin Dashboard", "后台管理", "後台管理"},
	"admin.login":            {"Login", "登录", "登錄"},
	"admin.logout":           {"Logout", "退出登录", "登出"},
	"admin.pass":             {"Password", "密码", "密碼"},
	"admin.tab.contacts":     {"Manage Contacts", "管理联系人", "管理聯繫人"},
	"admin.tab.memories":     {"Manage Memories", "管理回忆录", "管理回憶錄"},
	"admin.tab.merchandise":  {"Manage Souvenirs", "管理纪念品", "管理紀念品"},
	"admin.tab.orders":       {"Manage Orders", "管理订单", "管理訂單"},
	"admin.addMemory":        {"Write New Memory", "撰写新文章", "撰寫新文章"},
	"admin.addContact":       {"Add Contact", "新增联系人", "新增聯繫人"},
	"admin.addSouvenir":      {"List New Souvenir", "上架新商品", "上架新商品"},
	"admin.empty":            {"Nothing here yet.", "暂无数据。", "暫無資料。"},
	"admin.busy":             {"in progress", "处理中", "處理中"},
	"admin.inStock":          {"in stock", "有货", "有貨"},
	"admin.outOfStock":       {"out of stock", "缺货", "缺貨"},
	"admin.needVerification": {"Complete the human verification first.", "请先完成机器人验证。", "請先完成機器人驗證。"},

	// Notifications
	"toast.loginOK":        {"Logged in", "登录成功", "登入成功"},
	"toast.loginFailed":    {"Login failed: %s", "登录失败：%s", "登入失敗：%s"},
	"toast.loginGeneric":   {"wrong password or verification expired", "密码错误或验证失效", "密碼錯誤或驗證失效"},
	"toast.loadFailed":     {"Failed to load data", "数据加载失败", "數據加載失敗"},
	"toast.deleteOK":       {"Deleted", "删除成功", "刪除成功"},
	"toast.deleteFailed":   {"Delete failed: %s", "删除失败：%s", "刪除失敗：%s"},
	"toast.memoryOK":       {"Memory published", "回忆录发布成功", "回憶錄發布成功"},
	"toast.contactOK":      {"Contact added", "联系人已新增", "聯繫人已新增"},
	"toast.publishFailed":  {"Publish failed: %s", "发布失败：%s", "發布失敗：%s"},
	"toast.souvenirOK":     {"Souvenir listed", "商品上架成功", "商品上架成功"},
	"toast.souvenirFailed": {"Listing failed: %s", "商品上架失败：%s", "商品上架失敗：%s"},
	"toast.markedOut":      {"Marked out of stock", "已标记为缺货", "已標記為缺貨"},
	"toast.markedIn":       {"Marked in stock", "已标记为有货", "已標記為有貨"},
	"toast.stockFailed":    {"Failed to update stock: %s", "更新库存状态失败：%s", "更新庫存狀態失敗：%s"},
	"toast.statusOK":       {"Order status updated", "订单状态已更新", "訂單狀態已更新"},
	"toast.statusFailed":   {"Update failed: %s", "更新失败：%s", "更新失敗：%s"},

	// Storefront
	"shop.title":            {"Class Souvenirs", "班级纪念品", "班級紀念品"},
	"shop.all":              {"All", "全部", "全部"},
	"shop.cart":             {"Cart", "购物车", "購物車"},
	"shop.cartEmpty":        {"Your cart is empty.", "购物车是空的。", "購物車是空的。"},
	"shop.total":            {"Total", "合计", "合計"},
	"shop.soldOut":          {"Sold out", "已售罄", "已售罄"},
	"shop.needVerification": {"Complete the security check first.", "请先完成安全验证。", "請先完成安全驗證。"},
	"shop.orderOK":          {"Pre-order placed! We have received your order.", "预购成功！我们已收到您的订单。", "預購成功！我們已收到您的訂單。"},
	"shop.orderFailed":      {"Verification or submission failed, please try again later.", "验证或提交失败，请稍后再试。", "驗證或送出失敗，請稍後再試。"},

	// Memories
	"memories.title":    {"Class Chronicles", "班级回忆录", "班級回憶錄"},
	"memories.readMore": {"Read More", "阅读全文", "閱讀全文"},

	// Guestbook
	"guestbook.title":      {"Leave a Message", "留下寄语", "留下寄語"},
	"guestbook.inputName":  {"Your Name", "你的名字", "你的名字"},
	"guestbook.inputMsg":   {"Your Message...", "写下你的祝福...", "寫下你的祝福..."},
	"guestbook.submit":     {"Post Message", "发布留言", "發佈留言"},
	"guestbook.empty":      {"No messages yet. Be the first!", "还没有留言，来做第一个吧！", "還沒有留言，來做第一個吧！"},
	"guestbook.postFailed": {"Failed to post message. Please try again.", "留言发布失败，请重试。", "留言發佈失敗，請重試。"},
}
