// Package grounding holds the retrieval corpus that biases SQL generation
// toward the transactions schema: the literal DDL, documentation snippets,
// and curated question/SQL example pairs. The corpus is static configuration
// indexed once at startup and read-only afterwards.
package grounding

// Example is one trained question/SQL pair.
type Example struct {
	Question string
	SQL      string
}

// Corpus is the full training material for the grounding store.
type Corpus struct {
	DDL           string
	Documentation []string
	Examples      []Example
}

// DDL of the single transactions table, included verbatim in every SQL
// generation prompt.
const transactionsDDL = `CREATE TABLE transactions (
    transaction_id TEXT,
    timestamp TEXT,
    transaction_type TEXT,
    merchant_category TEXT,
    amount_inr INTEGER,
    transaction_status TEXT,
    sender_age_group TEXT,
    receiver_age_group TEXT,
    sender_state TEXT,
    sender_bank TEXT,
    receiver_bank TEXT,
    device_type TEXT,
    network_type TEXT,
    fraud_flag INTEGER,
    hour_of_day INTEGER,
    day_of_week TEXT,
    is_weekend INTEGER,
    day_part TEXT,
    amount_tier TEXT,
    sender_age_label TEXT,
    receiver_age_label TEXT
)`

const dataDictionary = `DATA DICTIONARY:

transaction_id: Unique transaction identifier. Example: TXN0000000001

timestamp: Date and time of the transaction. Example: 2024-10-08 15:17:28

transaction_type: Type of UPI transaction. Values: P2P, P2M, Bill Payment, Recharge

merchant_category: Category of merchant/purpose. Values: Food, Grocery, Shopping, Fuel, Utilities, Entertainment, Healthcare, Transport, Education, Other

amount_inr: Transaction amount in Indian Rupees.

transaction_status: Whether the transaction succeeded. Values: SUCCESS, FAILED

sender_age_group: Age bracket of the sender. Values: 18-25, 26-35, 36-45, 46-55, 56+

receiver_age_group: Age bracket of the receiver. Values: 18-25, 26-35, 36-45, 46-55, 56+

sender_state: Indian state of the sender. Examples: Delhi, Maharashtra, Karnataka

sender_bank: Sender bank. Examples: SBI, HDFC, ICICI, Axis, Kotak, PNB, Yes Bank, IndusInd

receiver_bank: Receiver bank. Same options as sender_bank.

device_type: Device used for the transaction. Values: Android, iOS, Web

network_type: Network used during transaction. Values: 3G, 4G, 5G, WiFi

fraud_flag: Whether flagged as fraud. Values: 0 (not fraud), 1 (fraud)

hour_of_day: Hour when transaction occurred (0-23).

day_of_week: Day of the week. Values: Monday - Sunday

is_weekend: Whether it was a weekend. Values: 0 (weekday), 1 (weekend)

day_part: Derived from hour_of_day. Values: Morning (6-11), Afternoon (12-17), Evening (18-21), Night (22-5)

amount_tier: Derived from amount_inr. Values: Small (<500), Medium (500-5000), Large (5000-50000)

sender_age_label: Derived from sender_age_group. Values: Young (18-25), Adult (26-55), Old (56+)

receiver_age_label: Derived from receiver_age_group. Values: Young (18-25), Adult (26-55), Old (56+)`

// DefaultCorpus returns the built-in training material for the UPI
// transactions dataset.
func DefaultCorpus() Corpus {
	return Corpus{
		DDL: transactionsDDL,
		Documentation: []string{
			dataDictionary,
			"P2P transactions have a NULL merchant_category.",
			"Non-P2P transactions have a NULL receiver_age_group and receiver_age_label.",
		},
		Examples: defaultExamples,
	}
}

var defaultExamples = []Example{
	{
		Question: "What is the total transaction volume for SBI?",
		SQL:      "SELECT SUM(amount_inr) FROM transactions WHERE sender_bank = 'SBI'",
	},
	{
		Question: "What is the failure rate for Bill Payments?",
		SQL:      "SELECT (SUM(CASE WHEN transaction_status = 'FAILED' THEN 1 ELSE 0 END) * 100.0 / COUNT(*)) AS failure_rate FROM transactions WHERE transaction_type = 'Bill Payment'",
	},
	{
		Question: "Which age group spends the most on food?",
		SQL:      "SELECT sender_age_label, SUM(amount_inr) as total_spent FROM transactions WHERE merchant_category = 'Food' GROUP BY sender_age_label ORDER BY total_spent DESC LIMIT 1",
	},
	{
		Question: "When are the peak hours for transactions?",
		SQL:      "SELECT day_part, COUNT(*) as txn_count FROM transactions GROUP BY day_part ORDER BY txn_count DESC",
	},
	{
		Question: "What percentage of Large transactions are flagged as fraud?",
		SQL:      "SELECT (SUM(fraud_flag) * 100.0 / COUNT(*)) AS fraud_rate FROM transactions WHERE amount_tier = 'Large'",
	},
	{
		Question: "Compare the failure rates between 3G and 5G networks.",
		SQL:      "SELECT network_type, (SUM(CASE WHEN transaction_status = 'FAILED' THEN 1 ELSE 0 END) * 100.0 / COUNT(*)) as failure_rate FROM transactions WHERE network_type IN ('3G', '5G') GROUP BY network_type",
	},
	{
		Question: "What is the most popular device type for P2P transfers?",
		SQL:      "SELECT device_type, COUNT(*) as count FROM transactions WHERE transaction_type = 'P2P' GROUP BY device_type ORDER BY count DESC LIMIT 1",
	},
	{
		Question: "Are transactions between different banks failing more often than same-bank transfers?",
		SQL:      "SELECT CASE WHEN sender_bank != receiver_bank THEN 'Cross-Bank' ELSE 'Same-Bank' END as bank_routing, (SUM(CASE WHEN transaction_status = 'FAILED' THEN 1 ELSE 0 END) * 100.0 / COUNT(*)) as failure_rate FROM transactions GROUP BY bank_routing",
	},
	{
		Question: "Do Young senders use UPI more than Old senders?",
		SQL:      "SELECT sender_age_label, COUNT(*) as total_txns FROM transactions WHERE sender_age_label IN ('Young', 'Old') GROUP BY sender_age_label",
	},
	{
		Question: "Is fraud more common on weekends?",
		SQL:      "SELECT is_weekend, (SUM(fraud_flag) * 100.0 / COUNT(*)) as fraud_rate FROM transactions GROUP BY is_weekend",
	},
	{
		Question: "Which state has the highest number of failed transactions?",
		SQL:      "SELECT sender_state, COUNT(*) as failed_count FROM transactions WHERE transaction_status = 'FAILED' GROUP BY sender_state ORDER BY failed_count DESC LIMIT 1",
	},
	{
		Question: "What is the average transaction amount for different merchant categories?",
		SQL:      "SELECT merchant_category, AVG(amount_inr) as avg_amount FROM transactions WHERE transaction_type != 'P2P' GROUP BY merchant_category",
	},
	{
		Question: "Who receives the most P2P money by age group?",
		SQL:      "SELECT receiver_age_label, SUM(amount_inr) as total_received FROM transactions WHERE transaction_type = 'P2P' GROUP BY receiver_age_label ORDER BY total_received DESC LIMIT 1",
	},
	{
		Question: "Show me the top 5 largest fraud transactions.",
		SQL:      "SELECT transaction_id, amount_inr, sender_bank, receiver_bank FROM transactions WHERE fraud_flag = 1 ORDER BY amount_inr DESC LIMIT 5",
	},
	{
		Question: "What is the average transaction amount during the Night vs Morning?",
		SQL:      "SELECT day_part, AVG(amount_inr) as avg_amount FROM transactions WHERE day_part IN ('Night', 'Morning') GROUP BY day_part",
	},
	{
		Question: "How many transactions happened in January 2024?",
		SQL:      "SELECT COUNT(*) as txn_count FROM transactions WHERE strftime('%m', timestamp) = '01' AND strftime('%Y', timestamp) = '2024'",
	},
	{
		Question: "What is the total amount transacted in July?",
		SQL:      "SELECT SUM(amount_inr) as total_amount FROM transactions WHERE strftime('%m', timestamp) = '07'",
	},
	{
		Question: "Show monthly transaction volume trend.",
		SQL:      "SELECT strftime('%Y-%m', timestamp) as month, COUNT(*) as txn_count, SUM(amount_inr) as total_amount FROM transactions GROUP BY month ORDER BY month",
	},
	{
		Question: "Which month had the highest number of fraud cases?",
		SQL:      "SELECT strftime('%m', timestamp) as month, SUM(fraud_flag) as fraud_count FROM transactions GROUP BY month ORDER BY fraud_count DESC LIMIT 1",
	},
	{
		Question: "What is the daily average transaction count?",
		SQL:      "SELECT AVG(daily_count) as avg_daily_txns FROM (SELECT strftime('%Y-%m-%d', timestamp) as day, COUNT(*) as daily_count FROM transactions GROUP BY day)",
	},
	{
		Question: "Which banks have more than 10000 transactions?",
		SQL:      "SELECT sender_bank, COUNT(*) as txn_count FROM transactions GROUP BY sender_bank HAVING COUNT(*) > 10000 ORDER BY txn_count DESC",
	},
	{
		Question: "Which states have a fraud rate above 1%?",
		SQL:      "SELECT sender_state, (SUM(fraud_flag) * 100.0 / COUNT(*)) as fraud_rate FROM transactions GROUP BY sender_state HAVING fraud_rate > 1.0 ORDER BY fraud_rate DESC",
	},
	{
		Question: "What is the median transaction amount?",
		SQL:      "SELECT amount_inr as median_amount FROM transactions ORDER BY amount_inr LIMIT 1 OFFSET (SELECT COUNT(*) / 2 FROM transactions)",
	},
	{
		Question: "What percentage of total transactions does each transaction type represent?",
		SQL:      "SELECT transaction_type, COUNT(*) as count, (COUNT(*) * 100.0 / (SELECT COUNT(*) FROM transactions)) as percentage FROM transactions GROUP BY transaction_type ORDER BY percentage DESC",
	},
	{
		Question: "What is the total and average transaction amount per state?",
		SQL:      "SELECT sender_state, COUNT(*) as txn_count, SUM(amount_inr) as total_amount, AVG(amount_inr) as avg_amount FROM transactions GROUP BY sender_state ORDER BY total_amount DESC",
	},
	{
		Question: "Show failed P2P transactions above 5000 rupees.",
		SQL:      "SELECT transaction_id, amount_inr, sender_bank, receiver_bank FROM transactions WHERE transaction_type = 'P2P' AND transaction_status = 'FAILED' AND amount_inr > 5000 ORDER BY amount_inr DESC",
	},
	{
		Question: "How many fraud transactions happened on weekends during the Night?",
		SQL:      "SELECT COUNT(*) as fraud_count FROM transactions WHERE fraud_flag = 1 AND is_weekend = 1 AND day_part = 'Night'",
	},
	{
		Question: "What is the failure rate for HDFC to SBI transfers?",
		SQL:      "SELECT (SUM(CASE WHEN transaction_status = 'FAILED' THEN 1 ELSE 0 END) * 100.0 / COUNT(*)) as failure_rate FROM transactions WHERE sender_bank = 'HDFC' AND receiver_bank = 'SBI'",
	},
	{
		Question: "Show transactions from Delhi on Android devices that failed.",
		SQL:      "SELECT transaction_id, amount_inr, transaction_type, sender_bank FROM transactions WHERE sender_state = 'Delhi' AND device_type = 'Android' AND transaction_status = 'FAILED' ORDER BY amount_inr DESC",
	},
	{
		Question: "How many Young senders from Maharashtra made Shopping transactions?",
		SQL:      "SELECT COUNT(*) as txn_count FROM transactions WHERE sender_age_label = 'Young' AND sender_state = 'Maharashtra' AND merchant_category = 'Shopping'",
	},
	{
		Question: "How many P2P transactions have no merchant category?",
		SQL:      "SELECT COUNT(*) as count FROM transactions WHERE transaction_type = 'P2P' AND merchant_category IS NULL",
	},
	{
		Question: "Show non-P2P transactions where receiver age is missing.",
		SQL:      "SELECT transaction_type, COUNT(*) as count FROM transactions WHERE transaction_type != 'P2P' AND receiver_age_group IS NULL GROUP BY transaction_type",
	},
	{
		Question: "What is the total number of transactions in the database?",
		SQL:      "SELECT COUNT(*) as total_transactions FROM transactions",
	},
	{
		Question: "What are all the distinct merchant categories?",
		SQL:      "SELECT DISTINCT merchant_category FROM transactions WHERE merchant_category IS NOT NULL ORDER BY merchant_category",
	},
	{
		Question: "List all the unique sender states.",
		SQL:      "SELECT DISTINCT sender_state FROM transactions ORDER BY sender_state",
	},
	{
		Question: "Categorize transactions as High Risk or Low Risk based on fraud flag and amount.",
		SQL:      "SELECT CASE WHEN fraud_flag = 1 AND amount_inr > 5000 THEN 'High Risk' WHEN fraud_flag = 1 THEN 'Medium Risk' ELSE 'Low Risk' END as risk_category, COUNT(*) as count FROM transactions GROUP BY risk_category",
	},
	{
		Question: "Compare success rates across all device types.",
		SQL:      "SELECT device_type, COUNT(*) as total, SUM(CASE WHEN transaction_status = 'SUCCESS' THEN 1 ELSE 0 END) as success_count, (SUM(CASE WHEN transaction_status = 'SUCCESS' THEN 1 ELSE 0 END) * 100.0 / COUNT(*)) as success_rate FROM transactions GROUP BY device_type ORDER BY success_rate DESC",
	},
	{
		Question: "What is the failure rate breakdown by network type and device type?",
		SQL:      "SELECT network_type, device_type, COUNT(*) as total, (SUM(CASE WHEN transaction_status = 'FAILED' THEN 1 ELSE 0 END) * 100.0 / COUNT(*)) as failure_rate FROM transactions GROUP BY network_type, device_type ORDER BY failure_rate DESC",
	},
	{
		Question: "Label each hour of day as peak or off-peak based on transaction count.",
		SQL:      "SELECT hour_of_day, COUNT(*) as txn_count, CASE WHEN COUNT(*) > (SELECT COUNT(*) / 24 FROM transactions) THEN 'Peak' ELSE 'Off-Peak' END as hour_label FROM transactions GROUP BY hour_of_day ORDER BY hour_of_day",
	},
	{
		Question: "Which bank pair has the highest failure rate?",
		SQL:      "SELECT sender_bank, receiver_bank, COUNT(*) as total, (SUM(CASE WHEN transaction_status = 'FAILED' THEN 1 ELSE 0 END) * 100.0 / COUNT(*)) as failure_rate FROM transactions GROUP BY sender_bank, receiver_bank HAVING total > 100 ORDER BY failure_rate DESC LIMIT 5",
	},
	{
		Question: "Which age group and device type combination has the most transactions?",
		SQL:      "SELECT sender_age_label, device_type, COUNT(*) as txn_count FROM transactions GROUP BY sender_age_label, device_type ORDER BY txn_count DESC LIMIT 5",
	},
	{
		Question: "What is the average transaction amount by day of week, sorted from highest to lowest?",
		SQL:      "SELECT day_of_week, AVG(amount_inr) as avg_amount, COUNT(*) as txn_count FROM transactions GROUP BY day_of_week ORDER BY avg_amount DESC",
	},
	{
		Question: "Show the top 3 states by number of successful large transactions.",
		SQL:      "SELECT sender_state, COUNT(*) as large_success_count FROM transactions WHERE amount_tier = 'Large' AND transaction_status = 'SUCCESS' GROUP BY sender_state ORDER BY large_success_count DESC LIMIT 3",
	},
	{
		Question: "Compare weekend vs weekday fraud rates for each bank.",
		SQL:      "SELECT sender_bank, CASE WHEN is_weekend = 1 THEN 'Weekend' ELSE 'Weekday' END as period, (SUM(fraud_flag) * 100.0 / COUNT(*)) as fraud_rate FROM transactions GROUP BY sender_bank, period ORDER BY sender_bank, period",
	},
	{
		Question: "Show the bottom 5 states by transaction volume.",
		SQL:      "SELECT sender_state, COUNT(*) as txn_count FROM transactions GROUP BY sender_state ORDER BY txn_count ASC LIMIT 5",
	},
	{
		Question: "Which are the top 3 merchant categories by revenue?",
		SQL:      "SELECT merchant_category, SUM(amount_inr) as total_revenue FROM transactions WHERE merchant_category IS NOT NULL GROUP BY merchant_category ORDER BY total_revenue DESC LIMIT 3",
	},
	{
		Question: "What are the 10 most recent transactions?",
		SQL:      "SELECT transaction_id, timestamp, transaction_type, amount_inr, sender_bank FROM transactions ORDER BY timestamp DESC LIMIT 10",
	},
	{
		Question: "How does each bank rank by total transaction amount?",
		SQL:      "SELECT sender_bank, SUM(amount_inr) as total_amount, COUNT(*) as txn_count FROM transactions GROUP BY sender_bank ORDER BY total_amount DESC",
	},
	{
		Question: "Which hour has the highest fraud rate?",
		SQL:      "SELECT hour_of_day, (SUM(fraud_flag) * 100.0 / COUNT(*)) as fraud_rate, COUNT(*) as total FROM transactions GROUP BY hour_of_day ORDER BY fraud_rate DESC LIMIT 1",
	},
	{
		Question: "Give me a summary of transactions by type showing count, total amount, average amount, and failure rate.",
		SQL:      "SELECT transaction_type, COUNT(*) as count, SUM(amount_inr) as total_amount, AVG(amount_inr) as avg_amount, (SUM(CASE WHEN transaction_status = 'FAILED' THEN 1 ELSE 0 END) * 100.0 / COUNT(*)) as failure_rate FROM transactions GROUP BY transaction_type ORDER BY count DESC",
	},
}
